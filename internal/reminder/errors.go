package reminder

import "errors"

var (
	ErrStoreUnavailable      = errors.New("reminder: task store unavailable")
	ErrAudioUnavailable      = errors.New("reminder: alarm audio unavailable")
	ErrSchedulingDegraded    = errors.New("reminder: wake scheduling degraded")
	ErrDispatchTargetMissing = errors.New("reminder: dispatch target missing")
)
