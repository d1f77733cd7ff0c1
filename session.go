package pop3appid

// SessionFlag is one of the session-wide bits this core sets, clears, or
// reads on the framework's session object (§6).
type SessionFlag uint32

const (
	// FlagClientGetsServerPackets asks the framework to also deliver
	// server→client bytes to the client detector's cross-direction
	// hook, so it can keep FlowState in sync with STLS/login outcomes.
	FlagClientGetsServerPackets SessionFlag = 1 << iota

	// FlagClientDetected marks that the client side concluded
	// detection (positively as POP3, or negatively as "not POP3").
	FlagClientDetected

	// FlagServiceDetected marks that the service detector has already
	// reported a service for this flow.
	FlagServiceDetected

	// FlagContinue asks the framework to keep delivering packets for
	// this flow to this detector.
	FlagContinue

	// FlagEncrypted marks that the flow has upgraded to TLS via STLS.
	FlagEncrypted
)

// BlobKey names a per-flow opaque blob slot. A single key is defined
// here because this core stores exactly one blob type ([FlowState]) per
// flow; the key still exists as a type, per §9's guidance, so that a
// framework multiplexing several detectors over one session can tell
// this core's blob apart from another's.
type BlobKey int

// FlowStateBlobKey is the key this core uses to attach a [FlowState] to
// a session's opaque per-flow storage.
const FlowStateBlobKey BlobKey = 1

// Session is the collaborator contract this core requires from the
// enclosing flow/session container (§6). It is implemented by the
// framework in production; [FlowStore] together with a concrete
// [Session] implementation such as [NoopSession] stands in for it in
// tests and in embedders that have no such framework of their own.
//
// All methods must be safe to call from the single worker that owns
// this flow; per §5, no two workers ever call into the same Session
// concurrently, so Session implementations are not required to
// synchronize against themselves — only [FlowStore], which is shared
// across many flows and thus many workers, needs to.
type Session interface {
	// GetBlob returns the blob previously attached under key, if any.
	GetBlob(key BlobKey) (any, bool)

	// SetBlob attaches blob under key, replacing the owning free
	// function that will be invoked when the flow tears down. Calling
	// SetBlob a second time for the same key does not invoke the
	// previous free function — callers that replace a blob are
	// responsible for releasing the old one themselves first.
	SetBlob(key BlobKey, blob any, free func())

	// GetFlag reports whether flag is currently set.
	GetFlag(flag SessionFlag) bool

	// SetFlag sets flag.
	SetFlag(flag SessionFlag)

	// ClearFlag clears flag.
	ClearFlag(flag SessionFlag)

	// AddApp reports a recognized client application. version may be
	// empty.
	AddApp(clientApp, payloadApp AppID, version string)

	// AddUser reports a username captured from USER/APOP, together
	// with whether the subsequent server response indicated a
	// successful login.
	AddUser(username string, app AppID, success bool)

	// AddServiceConsumeSubtype reports a fully identified service.
	// Ownership of subtype transfers to the callee; the caller must
	// not read or mutate it afterwards.
	AddServiceConsumeSubtype(app AppID, vendor, version string, subtype []Subtype)

	// FailService reports that service detection has conclusively
	// failed for this flow.
	FailService()

	// ServiceInProcess reports that service detection is still
	// undecided for this flow.
	ServiceInProcess()
}

// Args bundles the per-call input the framework hands to
// [ClientDetector.Validate] and [ServiceDetector.Validate] (§6).
type Args struct {
	// Direction is the direction Payload travelled.
	Direction Direction

	// Payload is the packet payload bytes for this call. It is never
	// retained past the call: parsers only borrow it.
	Payload []byte

	// Session is the flow's session object.
	Session Session

	// Packet is an opaque handle to the raw packet, used only for
	// logging/diagnostics by the framework; this core never inspects
	// it.
	Packet any
}
