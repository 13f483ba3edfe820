package types

// Metadata contains media metadata embedded into muxed output files.
type Metadata struct {
	Title       string
	Artist      string // video owner
	Description string
	Date        string // YYYY-MM-DD
	Duration    int    // seconds
}
