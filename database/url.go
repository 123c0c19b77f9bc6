package database

import "strings"

// ConstructDatabaseURL inserts databaseName into baseURL ahead of any query
// string and defaults sslmode to disable when the URL does not set one. An
// empty databaseName returns baseURL untouched, so a fully formed
// DATABASE_URL passes through as-is.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base := strings.TrimRight(baseURL, "/")

	url := base + "/" + databaseName
	if head, query, found := strings.Cut(base, "?"); found {
		url = head + "/" + databaseName + "?" + query
	}

	if !strings.Contains(url, "sslmode=") {
		if strings.Contains(url, "?") {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}

	return url
}
