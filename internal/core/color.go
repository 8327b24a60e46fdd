package core

// Color is the foreground colour of a screen cell. The terminal client maps
// each value to an ANSI 256-colour code.
type Color uint8

// Palette of the match screen.
const (
	ColorDefault       Color = iota
	ColorGray                // table border, centre line, walls
	ColorWhite               // unknown pickups
	ColorBrightWhite         // overlay text
	ColorBrightCyan          // own paddle
	ColorBrightMagenta       // opponent paddle
	ColorBrightYellow        // ball
	ColorGreen               // ball grow
	ColorRed                 // ball shrink
	ColorBlue                // paddle slow
	ColorBrightGreen         // paddle grow
	ColorBrightRed           // paddle shrink
)
