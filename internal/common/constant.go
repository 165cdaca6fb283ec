package common

// Collection names exposed by the backend data service.
const (
	TableProfiles          = "profiles"
	TableTiers             = "tiers"
	TableDeals             = "deals"
	TableRewards           = "rewards"
	TableStores            = "stores"
	TablePointTransactions = "point_transactions"
	TablePurchases         = "purchases"
	TableNotifications     = "notifications"
	TableUserSettings      = "user_settings"
)

// ProfilePicturesBucket is the object storage bucket for member avatars.
const ProfilePicturesBucket = "profile-pictures"

// DeleteAccountFunction is the remote function that irreversibly removes
// the member's account and data.
const DeleteAccountFunction = "delete-account"

// RedeemRewardFunction is the stored procedure that deducts points for a reward.
const RedeemRewardFunction = "redeem_reward"
