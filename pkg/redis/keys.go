package redis

import "fmt"

// Key construction helpers

// StatusKey returns the key of a host's current status (hash)
// Pattern: colorwarm:status:{host}
func StatusKey(host string) string {
	return fmt.Sprintf("colorwarm:status:%s", host)
}

// HistoryKey returns the key of a host's recent applied changes (list, newest first)
// Pattern: colorwarm:history:{host}
func HistoryKey(host string) string {
	return fmt.Sprintf("colorwarm:history:%s", host)
}
