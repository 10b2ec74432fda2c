package statusbar

// Version is the current version of the statusbar aggregator
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// Protocol is the bar protocol version spoken on stdout
	Protocol int
	// Producer is the default producer executable
	Producer string
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version:  Version,
		Protocol: ProtocolVersion,
		Producer: DefaultProducerBinary,
	}
}
