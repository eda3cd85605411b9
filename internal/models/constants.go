package models

import "fmt"

// Display fallbacks for fields missing from a raw entry.
const (
	DefaultChannelName = "Unnamed Channel"
	DefaultGroupTitle  = "Other Channels"
	LiveProgram        = "Live Program"
)

// SourceType identifies which playlist format produced a channel list.
type SourceType int16

const (
	SourceNone SourceType = 0
	SourceJSON SourceType = 1
	SourcePLS  SourceType = 2
)

func (s SourceType) String() string {
	switch s {
	case SourceJSON:
		return "json"
	case SourcePLS:
		return "pls"
	case SourceNone:
		return "none"
	default:
		return fmt.Sprintf("source(%d)", int16(s))
	}
}

// MarshalText lets SourceType render as its name in JSON payloads.
func (s SourceType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
