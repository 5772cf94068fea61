package grpcutil

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	errorDomain = "overseer"

	// ReasonNodeInactive is reported by a node that has been deactivated and no
	// longer serves peer requests.
	ReasonNodeInactive = "NODE_INACTIVE"
)

// ErrorCode extracts a gRPC error code from an error. If the error is not a
// gRPC error, it returns codes.Unknown.
func ErrorCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	return codes.Unknown
}

func IsUnavailable(err error) bool {
	code := ErrorCode(err)
	return code == codes.Unavailable || code == codes.DeadlineExceeded
}

// ErrorInfo extracts an error info from an error. If the error is not a gRPC
// error or does not contain an error info, it returns nil.
func ErrorInfo(err error) *errdetails.ErrorInfo {
	st := status.Convert(err)

	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info
		}
	}

	return nil
}

// InactiveError builds the error returned by a deactivated node.
func InactiveError(nodeID uint32) error {
	st := status.Newf(codes.Unavailable, "node %d is inactive", nodeID)

	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Domain: errorDomain,
		Reason: ReasonNodeInactive,
	})
	if err != nil {
		return st.Err()
	}

	return withInfo.Err()
}

// IsNodeInactive reports whether the error was produced by InactiveError.
func IsNodeInactive(err error) bool {
	info := ErrorInfo(err)
	return info != nil && info.Reason == ReasonNodeInactive
}
