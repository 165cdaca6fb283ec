// Package models defines client-side data models used by the GophLoyalty CLI.
//
// JSON tags follow the column names of the backend data service so rows can
// be decoded directly from REST responses.
package models
