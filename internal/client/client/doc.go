// Package client contains the transport layer of the GophLoyalty CLI.
//
// # Overview
//
// The package provides:
//  1. Contracts for the three remote services the app depends on:
//     IdentityClient (sign-in, sign-up, one-time codes, refresh, sign-out),
//     DataClient (member rows: profiles, tiers, rewards, stores, deals,
//     ledger, purchases, notifications, settings) and FunctionsClient.
//  2. REST implementations (RESTIdentity, RESTData, RESTFunctions) over a
//     shared REST transport that adds the API key, the member bearer token,
//     a request id and client-side rate limiting. A 401 on an authenticated
//     call triggers one forced token refresh and a single retry.
//  3. PostgresData, a DataClient that talks to the backend database
//     directly through pgx for trusted deployments.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport and status failures map onto sentinel errors matched with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound. Non-2xx replies
// are returned as *APIError carrying the status and the backend message.
package client
