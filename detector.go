package pop3appid

import "github.com/sirupsen/logrus"

// responseCountThreshold is the number of completed server responses
// that must be observed before the service detector will declare the
// service (§4.4 step 2, §8 P4).
const responseCountThreshold = 4

// ClientDetectorConfig carries the client detector's tunables, typed
// struct fields with documented defaults — the teacher's own
// `Server`/`Session` configuration idiom (fields, not a parsed file;
// §6 defines no config file or wire format for this core).
type ClientDetectorConfig struct {
	// UsernameCap bounds a captured USER/APOP argument, in bytes.
	UsernameCap int

	// AuthArgCap bounds the captured AUTH mechanism diagnostic token,
	// in bytes.
	AuthArgCap int
}

// DefaultClientDetectorConfig returns the caps this core has always
// used (§4.3).
func DefaultClientDetectorConfig() ClientDetectorConfig {
	return ClientDetectorConfig{UsernameCap: usernameCap, AuthArgCap: authArgCap}
}

// ServiceDetectorConfig carries the service detector's tunables.
type ServiceDetectorConfig struct {
	// ResponseCountThreshold is the number of completed server
	// responses observed before the service is declared (§4.4 step 2,
	// §8 P4).
	ResponseCountThreshold uint

	// VersionCap bounds a captured greeting version string, in bytes.
	VersionCap int
}

// DefaultServiceDetectorConfig returns the threshold and cap this core
// has always used (§4.4).
func DefaultServiceDetectorConfig() ServiceDetectorConfig {
	return ServiceDetectorConfig{ResponseCountThreshold: responseCountThreshold, VersionCap: versionCap}
}

// flowStateFor returns the [FlowState] attached to session, creating
// and attaching a fresh one — sized by caps — on first sight of the
// flow (§4.5). Whichever detector sees a flow first decides the caps
// for fields it owns; the other detector's caps default to this
// package's constants, since the two detectors' configs are
// independent but a flow has only one [FlowState].
func flowStateFor(session Session, usernameCap, versionCap, authArgCap int) *FlowState {
	if b, ok := session.GetBlob(FlowStateBlobKey); ok {
		return b.(*FlowState)
	}
	fs := newFlowStateWithCaps(usernameCap, versionCap, authArgCap)
	session.SetBlob(FlowStateBlobKey, fs, nil)
	return fs
}

// ClientDetector is the framework-facing client-direction detector
// (§6 "Construct client detector"/"validate_client").
type ClientDetector struct {
	parser *ClientParser
	config ClientDetectorConfig
	log    logrus.FieldLogger
}

// NewClientDetector creates a ClientDetector. log may be nil, in which
// case tracing falls back to logrus's package-wide standard logger
// (still subject to whatever level that logger is configured at).
func NewClientDetector(parser *ClientParser, config ClientDetectorConfig, log logrus.FieldLogger) *ClientDetector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ClientDetector{parser: parser, config: config, log: log}
}

// Validate is validate_client (§6 item 3): invoked by the framework
// once per client- or server-direction packet for a flow this detector
// is attached to.
func (d *ClientDetector) Validate(args Args) Status {
	if len(args.Payload) == 0 {
		return StatusInProgress
	}
	flow := flowStateFor(args.Session, d.config.UsernameCap, versionCap, d.config.AuthArgCap)
	status := d.parser.FeedClient(flow, args)
	d.log.WithField("client_state", flow.Client).WithField("status", status).Debug("pop3 client validate")
	return status
}

// ServiceDetector is the framework-facing service detector (§6
// "Construct service detector"/"validate_service").
type ServiceDetector struct {
	server *ServerParser
	config ServiceDetectorConfig
	log    logrus.FieldLogger
}

// NewServiceDetector creates a ServiceDetector. log may be nil, in
// which case tracing falls back to logrus's standard logger.
func NewServiceDetector(server *ServerParser, config ServiceDetectorConfig, log logrus.FieldLogger) *ServiceDetector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ServiceDetector{server: server, config: config, log: log}
}

// ServicePorts advertises the default service port (§6 item 2).
func (d *ServiceDetector) ServicePorts() []int {
	return []int{DefaultServicePort}
}

// Validate is validate_service (§6 item 3), implementing the outer
// wrapper around the server parser described in §4.4 step 2: it only
// acts on server-direction packets, short-circuits once the service is
// already detected and need_continue has cleared, and otherwise parses
// the packet and declares the service once response_count crosses
// [ServiceDetectorConfig.ResponseCountThreshold].
func (d *ServiceDetector) Validate(args Args) Status {
	if len(args.Payload) == 0 || args.Direction != FromResponder {
		args.Session.ServiceInProcess()
		return StatusInProgress
	}

	flow := flowStateFor(args.Session, usernameCap, d.config.VersionCap, authArgCap)

	// The server side is now seeing packets; no need for the client
	// side's cross-direction hook to keep watching them.
	args.Session.ClearFlag(FlagClientGetsServerPackets)

	if flow.NeedContinue {
		args.Session.SetFlag(FlagContinue)
	} else {
		args.Session.ClearFlag(FlagContinue)
		if args.Session.GetFlag(FlagServiceDetected) {
			return StatusSuccess
		}
	}

	err := d.server.FeedServer(flow, args.Session, args.Payload, true)
	d.log.WithField("server_state", flow.Server).WithField("response_count", flow.ResponseCount).WithError(err).Debug("pop3 service validate")

	if err == nil {
		if flow.ResponseCount >= d.config.ResponseCountThreshold && !args.Session.GetFlag(FlagServiceDetected) {
			app := AppIDPOP3
			if flow.Client == ClientSTLSPending {
				app = AppIDPOP3S
			}
			subtypes := flow.Subtype
			flow.Subtype = nil
			args.Session.AddServiceConsumeSubtype(app, flow.Vendor, flow.Version, subtypes)
			return StatusSuccess
		}
		args.Session.ServiceInProcess()
		return StatusInProgress
	}

	if !args.Session.GetFlag(FlagServiceDetected) {
		args.Session.FailService()
		return StatusNoMatch
	}
	args.Session.ClearFlag(FlagContinue)
	return StatusSuccess
}
