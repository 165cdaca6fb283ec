// Package services contains the account services of the GophLoyalty client.
//
// Each service is an interface with an unexported implementation built by a
// NewXxx constructor:
//   - RewardsService: reward catalog with lock state, and redemption.
//   - ActivityService: home feed (deals, recent points, unread
//     notifications, purchases) and ledger reconciliation.
//   - SettingsService: notification preferences, one setter per toggle.
//   - AppearanceService: the local light/dark preference.
//   - AccountService: irreversible account deletion.
//
// Reads degrade to cached or default values and report it; mutations return
// their errors to the caller wrapped in the common sentinels.
package services
