package kube

import (
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/xlab-si/lcm-engine/domain/model"
)

// mapError classifies a client-go error as a *model.ClusterAPIError.
// Anything not recognized as a client side problem is considered transient.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := model.ClusterErrorTransient
	switch {
	case apierrors.IsAlreadyExists(err), apierrors.IsConflict(err):
		kind = model.ClusterErrorConflict
	case apierrors.IsNotFound(err):
		kind = model.ClusterErrorNotFound
	case apierrors.IsForbidden(err), apierrors.IsUnauthorized(err):
		kind = model.ClusterErrorForbidden
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err), apierrors.IsMethodNotSupported(err):
		kind = model.ClusterErrorInvalid
	}
	return &model.ClusterAPIError{Kind: kind, Op: op, Err: err}
}
