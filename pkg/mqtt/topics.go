package mqtt

import "fmt"

// Availability payloads
const (
	Online  = "online"
	Offline = "offline"
)

// StatusTopic carries the retained JSON status of one host
// Pattern: colorwarm/{host}/status
func StatusTopic(host string) string {
	return fmt.Sprintf("colorwarm/%s/status", host)
}

// CommandTopic receives JSON commands for one host
// Pattern: colorwarm/{host}/command
func CommandTopic(host string) string {
	return fmt.Sprintf("colorwarm/%s/command", host)
}

// AvailabilityTopic carries the retained online/offline state, set to offline
// by the broker when the connection drops
// Pattern: colorwarm/{host}/availability
func AvailabilityTopic(host string) string {
	return fmt.Sprintf("colorwarm/%s/availability", host)
}
