// Package workflow runs the script breakdown pipeline as a state graph:
// parse → classify → track → analyze → supervise, skipping straight from
// parse to analyze when the script yields no scenes.
package workflow

import "errors"

var (
	ErrInvalidRuntime  = errors.New("invalid workflow runtime")
	ErrClassifyFailed  = errors.New("classification failed")
	ErrTrackFailed     = errors.New("evidence tracking failed")
	ErrAnalyzeFailed   = errors.New("analysis failed")
	ErrSuperviseFailed = errors.New("supervision failed")
)
