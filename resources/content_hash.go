package resources

import (
	"sort"
	"strings"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

// ComputeContentHash returns a short digest over the inputs that end up inside
// the pod: package bytes, literal environment and secret values. SubmitDeployment
// updates an existing workload whose stamped digest differs, which rolls its pod.
func ComputeContentHash(pkg []byte, env map[string]string, refs []model.SecretRef) string {
	kv := map[string]string{"package": naming.ShortHash(string(pkg), 16)}
	for k, v := range env {
		kv["env:"+k] = v
	}
	for _, r := range UniqueSecretRefs(refs) {
		for k, v := range r.Env {
			kv["secret-env:"+k] = v
		}
		if r.File != nil {
			kv["secret-file:"+r.File.Path] = r.File.Contents
		}
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kv[k])
		b.WriteByte(0)
	}
	return naming.ShortHash(b.String(), 6)
}
