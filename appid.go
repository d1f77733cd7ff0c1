package pop3appid

// AppID identifies an application-layer protocol recognized by this
// core.
type AppID int

const (
	// AppIDNone means no application has been identified.
	AppIDNone AppID = iota

	// AppIDPOP3 is plaintext POP3.
	AppIDPOP3

	// AppIDPOP3S is POP3 upgraded to TLS via STLS.
	AppIDPOP3S
)

func (a AppID) String() string {
	switch a {
	case AppIDPOP3:
		return "POP3"
	case AppIDPOP3S:
		return "POP3S"
	default:
		return "none"
	}
}

// AppInfoFlag advertises detector capabilities to the framework, per §6
// of the specification ("Construct client detector").
type AppInfoFlag uint32

const (
	// AppInfoFlagServiceAdditional marks the app ID as a secondary
	// signal alongside a service detector's own declaration.
	AppInfoFlagServiceAdditional AppInfoFlag = 1 << iota

	// AppInfoFlagClientUser marks the app ID as one that can carry an
	// authenticated username annotation.
	AppInfoFlagClientUser
)

// AppRegistry is the {AppID: flags} table both detectors advertise.
var AppRegistry = map[AppID]AppInfoFlag{
	AppIDPOP3:  AppInfoFlagServiceAdditional | AppInfoFlagClientUser,
	AppIDPOP3S: AppInfoFlagServiceAdditional | AppInfoFlagClientUser,
}

// DefaultServicePort is the default TCP port the service detector
// advertises (§6).
const DefaultServicePort = 110

// Direction is the direction a payload travelled, relative to the
// connection initiator.
type Direction int

const (
	// FromInitiator is client→server traffic.
	FromInitiator Direction = iota

	// FromResponder is server→client traffic.
	FromResponder
)

// Status is the three-way result every validate entry point returns to
// the framework (§6).
type Status int

const (
	// StatusInProgress means the flow may still become identified;
	// feed it more bytes.
	StatusInProgress Status = iota

	// StatusSuccess means detection concluded successfully — either an
	// app/service was identified, or the flow was conclusively ruled
	// out as not POP3 (§4.1: "success, but no POP3 signal").
	StatusSuccess

	// StatusNoMatch means detection concluded in failure (a malformed
	// payload with no service ever declared).
	StatusNoMatch
)
