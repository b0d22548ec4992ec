package config

import "time"

// UI and display
const (
	CardsPerPage = 10
	SetsPerPage  = 15
	// Discord caps autocomplete results at 25.
	AutocompleteLimit = 25

	ErrorColor        = 0xFF0000
	SuccessColor      = 0x00FF00
	InfoColor         = 0x0099FF
	WarningColor      = 0xFFAA00
	EmbedDefaultColor = 0x2B2D31

	RarityCommonColor   = 0x808080
	RarityUncommonColor = 0x1ABC9C
	RarityRareColor     = 0x3498DB
	RarityHoloColor     = 0x9B59B6
	RaritySecretColor   = 0xFFD700
)

// Command handling
const (
	CommandExecutionTimeout = 10 * time.Second
	SlowCommandThreshold    = 2 * time.Second
	AutocompleteTimeout     = 2 * time.Second
	CatalogRequestTimeout   = 8 * time.Second
	LedgerTimeout           = 5 * time.Second

	// MaxPacksPerOpening bounds /openpack so one call fits in a case.
	MaxPacksPerOpening = 36
)

// Startup and shutdown
const (
	StartupTimeout  = 2 * time.Minute
	ShutdownTimeout = 10 * time.Second
	WarmTimeout     = time.Minute
)
