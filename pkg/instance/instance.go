package instance

import "github.com/angelmondragon/samcart-relay/pkg/env"

// GetID identifies this process in logs. Platform-provided names win over the
// host name.
func GetID() string {
	return env.First("local", "RELAY_INSTANCE_ID", "DYNO", "HOSTNAME")
}
