package remote

// KeyCode identifies a button on the virtual remote, fixed by the
// protocol to the underlying Android keycode values.
type KeyCode uint64

// Key codes the protocol defines. Values are Android's own keycode
// constants; the client never negotiates these with the TV.
const (
	KeyUp       KeyCode = 19
	KeyDown     KeyCode = 20
	KeyLeft     KeyCode = 21
	KeyRight    KeyCode = 22
	KeyCenter   KeyCode = 23 // OK / select
	KeyBack     KeyCode = 4
	KeyHome     KeyCode = 3
	KeyPower    KeyCode = 26
	KeyVolUp    KeyCode = 24
	KeyVolDown  KeyCode = 25
	KeyMute     KeyCode = 164
	KeyChanUp   KeyCode = 166
	KeyChanDown KeyCode = 167
)

// ByName maps a command-friendly key name to its KeyCode, for clients
// that take key presses as text (e.g. the interactive CLI).
var ByName = map[string]KeyCode{
	"up":       KeyUp,
	"down":     KeyDown,
	"left":     KeyLeft,
	"right":    KeyRight,
	"center":   KeyCenter,
	"ok":       KeyCenter,
	"back":     KeyBack,
	"home":     KeyHome,
	"power":    KeyPower,
	"volup":    KeyVolUp,
	"voldown":  KeyVolDown,
	"mute":     KeyMute,
	"chanup":   KeyChanUp,
	"chandown": KeyChanDown,
}
