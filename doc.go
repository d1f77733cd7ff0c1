// Package pop3appid implements the POP3 application-identification core:
// two coupled per-flow state machines that watch a bidirectional TCP byte
// stream believed to carry POP3, and decide whether the flow is POP3,
// whether it has upgraded to POP3S via STLS, and which username (if any)
// authenticated successfully.
//
// The package never terminates, proxies, or rewrites traffic. It borrows
// a byte window per call, mutates a per-flow [FlowState], and reports one
// of [StatusInProgress], [StatusSuccess], or [StatusNoMatch] back to the
// caller. Packet reassembly, flow lifecycle, and the surrounding
// detection framework are the caller's responsibility; see [Session] for
// the collaborator contract this package expects from them.
package pop3appid
