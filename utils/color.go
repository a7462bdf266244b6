package utils

// Embed colors used across the workflow.
const (
	ColorBlue   = 0x3498db
	ColorGreen  = 0x2ecc71
	ColorOrange = 0xe67e22
	ColorRed    = 0xe74c3c
)
