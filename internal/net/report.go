package net

import (
	"fmt"

	"gungnir/internal/common"
)

// formatEvent renders one engine event as a protocol line. TCP clients see
// rejects inline on their own connection rather than on a separate error
// stream.
func formatEvent(event common.EngineEvent) string {
	switch e := event.(type) {
	case common.Trade:
		return fmt.Sprintf("%s\n", e)
	case common.Reject:
		return fmt.Sprintf("REJECT: %s\n", e.Reason)
	}
	return ""
}
