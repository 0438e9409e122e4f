package project

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/zip"

	"github.com/xlab-si/lcm-engine/domain/model"
)

// DebugLogName is the archive entry holding the pod log.
const DebugLogName = "debug.log"

// DebugPackageInput identifies the tenant to collect diagnostics from.
type DebugPackageInput struct {
	Tenant model.Tenant
}

// DebugPackageOutput is a zip archive of diagnostics.
type DebugPackageOutput struct {
	Namespace string
	Pod       string
	Archive   []byte
}

// DebugPackage returns a zip archive holding the log of the first pod in the tenant namespace.
func (u *UseCase) DebugPackage(ctx context.Context, in *DebugPackageInput) (*DebugPackageOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("DebugPackageInput is required")
	}
	ns, pod, err := u.firstPod(ctx, in.Tenant)
	if err != nil {
		return nil, err
	}
	log, err := u.Cluster.ReadPodLog(ctx, ns, pod.Name)
	if err != nil {
		return nil, fmt.Errorf("read log of pod %s/%s: %w", ns, pod.Name, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(DebugLogName)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", DebugLogName, err)
	}
	if _, err := w.Write(log); err != nil {
		return nil, fmt.Errorf("write %s: %w", DebugLogName, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close debug archive: %w", err)
	}
	return &DebugPackageOutput{Namespace: ns, Pod: pod.Name, Archive: buf.Bytes()}, nil
}
