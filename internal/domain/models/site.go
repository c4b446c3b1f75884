// internal/domain/models/site.go
package models

// DefaultSiteName is shown in page chrome and email subjects.
const DefaultSiteName = "HouseMatch"
