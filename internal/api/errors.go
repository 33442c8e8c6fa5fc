package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/geodash/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is the ErrorInfo domain attached to every mapped error.
const ErrorDomain = "geodash"

// Reasons carried in ErrorInfo. They identify the exact error kind so the
// client can rebuild it.
const (
	ReasonValidation       = "VALIDATION"
	ReasonGeoNotFound      = "GEO_NOT_FOUND"
	ReasonGeoUnavailable   = "GEO_UNAVAILABLE"
	ReasonStoreNotFound    = "STORE_NOT_FOUND"
	ReasonStoreConstraint  = "STORE_CONSTRAINT"
	ReasonStoreUnavailable = "STORE_UNAVAILABLE"
	ReasonUnauthorized     = "UNAUTHORIZED"
)

// Classification is the transport-neutral view of an error.
type Classification struct {
	Code       codes.Code
	HTTPStatus int
	Reason     string
	Metadata   map[string]string
}

// Classify maps an error of the domain taxonomy to its status codes and
// reason. Unknown errors are internal and carry no reason.
func Classify(err error) Classification {
	var (
		ve *common.ValidationError
		ge *common.GeoError
		se *common.StoreError
	)

	switch {
	case errors.As(err, &ve):
		return Classification{codes.InvalidArgument, http.StatusBadRequest, ReasonValidation, map[string]string{"field": ve.Field}}
	case errors.As(err, &ge):
		md := map[string]string{"zip_code": ge.PostalCode}
		if ge.Kind == common.GeoNotFound {
			return Classification{codes.InvalidArgument, http.StatusBadRequest, ReasonGeoNotFound, md}
		}
		return Classification{codes.Unavailable, http.StatusServiceUnavailable, ReasonGeoUnavailable, md}
	case errors.As(err, &se):
		md := map[string]string{"op": se.Op}
		switch se.Kind {
		case common.StoreNotFound:
			return Classification{codes.NotFound, http.StatusNotFound, ReasonStoreNotFound, md}
		case common.StoreConstraintViolation:
			return Classification{codes.FailedPrecondition, http.StatusConflict, ReasonStoreConstraint, md}
		default:
			return Classification{codes.Unavailable, http.StatusServiceUnavailable, ReasonStoreUnavailable, md}
		}
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return Classification{codes.Unauthenticated, http.StatusUnauthorized, ReasonUnauthorized, nil}
	default:
		return Classification{codes.Internal, http.StatusInternalServerError, "", nil}
	}
}

// ToStatus converts err into a gRPC status error whose message is the
// user-facing text and whose ErrorInfo reason names the error kind.
// Errors that already are statuses pass through.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	c := Classify(err)
	msg := err.Error()
	if c.Code == codes.Internal {
		msg = "internal error"
	}

	st := status.New(c.Code, msg)
	if c.Reason != "" {
		if withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: c.Reason, Domain: ErrorDomain, Metadata: c.Metadata}); derr == nil {
			st = withInfo
		}
	}
	return st.Err()
}

// FromStatus rebuilds the domain error carried by a gRPC status. Statuses
// without a known reason become a wrapped common sentinel.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	reason, md := errorInfo(st)
	msg := st.Message()

	switch reason {
	case ReasonValidation:
		return &common.ValidationError{Field: md["field"], Message: msg}
	case ReasonGeoNotFound:
		return &common.GeoError{Kind: common.GeoNotFound, PostalCode: md["zip_code"]}
	case ReasonGeoUnavailable:
		return &common.GeoError{Kind: common.GeoUnavailable, PostalCode: md["zip_code"]}
	case ReasonStoreNotFound:
		return &common.StoreError{Kind: common.StoreNotFound, Op: md["op"]}
	case ReasonStoreConstraint:
		return &common.StoreError{Kind: common.StoreConstraintViolation, Op: md["op"]}
	case ReasonStoreUnavailable:
		return &common.StoreError{Kind: common.StoreUnavailable, Op: md["op"]}
	}

	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	case codes.Unavailable, codes.DeadlineExceeded:
		// The server itself could not be reached; to the dashboard the
		// store is unavailable.
		return &common.StoreError{Kind: common.StoreUnavailable, Op: "rpc", Err: err}
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	default:
		return fmt.Errorf("%w: %s", common.ErrorInternal, msg)
	}
}

func errorInfo(st *status.Status) (string, map[string]string) {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason(), info.GetMetadata()
		}
	}
	return "", nil
}
