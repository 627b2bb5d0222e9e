package bluetooth

const (
	BLUETOOTH_PREFIX    = "org.bluez"
	BLUETOOTH_DEVICE    = BLUETOOTH_PREFIX + ".Device1"
	BLUETOOTH_PLAYER    = BLUETOOTH_PREFIX + ".MediaPlayer1"
	BLUETOOTH_TRANSPORT = BLUETOOTH_PREFIX + ".MediaTransport1"

	PLAYER_METHOD_PLAY     = BLUETOOTH_PLAYER + ".Play"
	PLAYER_METHOD_PAUSE    = BLUETOOTH_PLAYER + ".Pause"
	PLAYER_METHOD_NEXT     = BLUETOOTH_PLAYER + ".Next"
	PLAYER_METHOD_PREVIOUS = BLUETOOTH_PLAYER + ".Previous"

	BLUEZ_PATH = "/org/bluez"
	ROOT_PATH  = "/"
)

// Device properties
const (
	BT_PROP_ADAPTER   = "Adapter"
	BT_PROP_ADDRESS   = "Address"
	BT_PROP_CONNECTED = "Connected"
)

// Player and transport properties
const (
	PLAYER_PROP_TRACK    = "Track"
	PLAYER_PROP_STATUS   = "Status"
	TRANSPORT_PROP_STATE = "State"

	TRACK_TITLE  = "Title"
	TRACK_ARTIST = "Artist"
	TRACK_ALBUM  = "Album"

	TRANSPORT_STATE_ACTIVE = "active"
	TRANSPORT_STATE_IDLE   = "idle"
)

// Presentation texts
const (
	UNKNOWN              = "Unknown"
	MSG_NO_DEVICE        = "No media device connected"
	MSG_WAITING_FOR_INFO = "Device connected, waiting for info"

	// legacy display contract: the scrolling label expects trailing spaces
	TRACK_PADDING = "     "
)
