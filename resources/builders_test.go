package resources

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
	"github.com/xlab-si/lcm-engine/resources/fakecluster"
)

const testNS = "lcm-service-w1-p2"

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func testSecrets() []model.SecretRef {
	return []model.SecretRef{
		{ID: 1, Name: "aws", Env: map[string]string{"AWS_SECRET": "s", "AWS_KEY": "k"}},
		{ID: 2, Name: "cfg", File: &model.FileSecret{Path: "/etc/app/config.yaml", Contents: b64("a: 1")}},
		{ID: 2, Name: "cfg", File: &model.FileSecret{Path: "/etc/app/config.yaml", Contents: b64("a: 1")}},
		{ID: 3, Name: "other", File: &model.FileSecret{Path: "/opt/config.yaml", Contents: b64("b: 2")}},
		{ID: 4, Name: "empty"},
	}
}

func TestBuildNamespace(t *testing.T) {
	ns, err := BuildNamespace(model.Tenant{WorkspaceID: 1, ProjectID: 2})
	if err != nil {
		t.Fatalf("BuildNamespace: %v", err)
	}
	if ns.Name != testNS {
		t.Fatalf("unexpected name %s", ns.Name)
	}
	want := map[string]string{
		LabelAppK8sManagedBy: ManagedBy,
		LabelWorkspaceID:     "1",
		LabelProjectID:       "2",
	}
	if diff := cmp.Diff(want, ns.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if _, err := BuildNamespace(model.Tenant{WorkspaceID: -1}); !errors.Is(err, model.ErrNaming) {
		t.Fatalf("expected ErrNaming, got %v", err)
	}
}

func TestBuildConfigMap(t *testing.T) {
	cm := BuildConfigMap(testNS, "tosca", []byte("PK"))
	if got := cm.BinaryData[ConfigMapPackageKey]; string(got) != "PK" {
		t.Fatalf("unexpected payload %q", got)
	}
	if len(cm.Data) != 0 || len(cm.BinaryData) != 1 {
		t.Fatalf("config map must carry exactly one binary key: %+v", cm)
	}
	if cm.Annotations[AnnotationContentHash] == BuildConfigMap(testNS, "tosca", []byte("PK2")).Annotations[AnnotationContentHash] {
		t.Fatalf("package digest must follow the package")
	}
}

func TestBuildSecrets(t *testing.T) {
	env := BuildEnvSecret(testNS, "tosca", testSecrets())
	if env == nil || env.Name != "tosca-env" || env.Type != corev1.SecretTypeOpaque {
		t.Fatalf("unexpected env secret %+v", env)
	}
	if diff := cmp.Diff(map[string][]byte{"AWS_KEY": []byte("k"), "AWS_SECRET": []byte("s")}, env.Data); diff != "" {
		t.Fatalf("env data mismatch (-want +got):\n%s", diff)
	}

	file, err := BuildFileSecret(testNS, "tosca", testSecrets())
	if err != nil {
		t.Fatalf("BuildFileSecret: %v", err)
	}
	if file.Name != "tosca-file" {
		t.Fatalf("unexpected file secret name %s", file.Name)
	}
	k1 := naming.SecretKeyName("/etc/app/config.yaml")
	k2 := naming.SecretKeyName("/opt/config.yaml")
	if k1 == k2 {
		t.Fatalf("same basename must yield distinct keys")
	}
	want := map[string][]byte{k1: []byte("a: 1"), k2: []byte("b: 2")}
	if diff := cmp.Diff(want, file.Data); diff != "" {
		t.Fatalf("file data mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSecretsEmpty(t *testing.T) {
	if s := BuildEnvSecret(testNS, "tosca", nil); s != nil {
		t.Fatalf("expected nil env secret, got %+v", s)
	}
	s, err := BuildFileSecret(testNS, "tosca", []model.SecretRef{{ID: 1, Env: map[string]string{"A": "b"}}})
	if err != nil || s != nil {
		t.Fatalf("expected nil file secret, got %+v %v", s, err)
	}
}

func TestBuildFileSecretInvalidBase64(t *testing.T) {
	refs := []model.SecretRef{{ID: 1, File: &model.FileSecret{Path: "/a/b", Contents: "%%%"}}}
	if _, err := BuildFileSecret(testNS, "tosca", refs); !errors.Is(err, model.ErrInvalidDeployment) {
		t.Fatalf("expected ErrInvalidDeployment, got %v", err)
	}
}

func TestUniqueSecretRefs(t *testing.T) {
	got := UniqueSecretRefs(testSecrets())
	var ids []int
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	// refs without id fall back to the name
	byName := UniqueSecretRefs([]model.SecretRef{
		{Name: "n", Env: map[string]string{"A": "1"}},
		{Name: "n", Env: map[string]string{"A": "1"}},
	})
	if len(byName) != 1 {
		t.Fatalf("expected name based de-duplication, got %d", len(byName))
	}
}

func TestBuildImagePullSecret(t *testing.T) {
	src := &corev1.Secret{Type: corev1.SecretTypeDockerConfigJson, Data: map[string][]byte{".dockerconfigjson": []byte("{}")}}
	src.Name = "docker-registry"
	src.Namespace = "lcm-engine"
	got := BuildImagePullSecret(testNS, src)
	if got.Name != "docker-registry" || got.Namespace != testNS || got.Type != corev1.SecretTypeDockerConfigJson {
		t.Fatalf("unexpected secret %+v", got.ObjectMeta)
	}
	if diff := cmp.Diff(src.Data, got.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDeployment(t *testing.T) {
	dep := BuildDeployment(WorkloadInput{
		Namespace:       testNS,
		Name:            "tosca",
		Image:           "ghcr.io/xlab-si/xopera-api:0.5.4",
		Port:            8080,
		WorkDir:         "/opera/csar",
		Env:             map[string]string{"PYTHONPATH": "/app", "A": "1"},
		Secrets:         testSecrets(),
		ImagePullSecret: "docker-registry",
		ContentHash:     "abc123",
	})

	if dep.Name != "tosca" || dep.Namespace != testNS || *dep.Spec.Replicas != 1 {
		t.Fatalf("unexpected deployment meta %+v", dep.ObjectMeta)
	}
	if diff := cmp.Diff(map[string]string{"app": "tosca"}, dep.Spec.Selector.MatchLabels); diff != "" {
		t.Fatalf("selector mismatch (-want +got):\n%s", diff)
	}
	pod := dep.Spec.Template.Spec
	if dep.Spec.Template.Annotations[AnnotationContentHash] != "abc123" {
		t.Fatalf("missing content hash annotation")
	}
	if diff := cmp.Diff([]corev1.LocalObjectReference{{Name: "docker-registry"}}, pod.ImagePullSecrets); diff != "" {
		t.Fatalf("image pull secrets mismatch (-want +got):\n%s", diff)
	}

	if len(pod.InitContainers) != 1 {
		t.Fatalf("expected one init container, got %d", len(pod.InitContainers))
	}
	initC := pod.InitContainers[0]
	if initC.Name != InitContainerName || initC.Image != DefaultInitImage {
		t.Fatalf("unexpected init container %s %s", initC.Name, initC.Image)
	}
	if diff := cmp.Diff([]string{"-c", "unzip -o /data/csar.zip -d '/opera/csar'"}, initC.Args); diff != "" {
		t.Fatalf("init args mismatch (-want +got):\n%s", diff)
	}
	wantInitMounts := []corev1.VolumeMount{
		{Name: VolumeCompressedPackage, MountPath: "/data", ReadOnly: true},
		{Name: VolumeExtractedPackage, MountPath: "/opera/csar", SubPath: "csar"},
	}
	if diff := cmp.Diff(wantInitMounts, initC.VolumeMounts); diff != "" {
		t.Fatalf("init mounts mismatch (-want +got):\n%s", diff)
	}

	main := pod.Containers[0]
	if main.Name != "tosca" || main.WorkingDir != "/opera/csar" || main.Ports[0].ContainerPort != 8080 {
		t.Fatalf("unexpected main container %+v", main)
	}
	secretRef := func(key string) *corev1.EnvVarSource {
		return &corev1.EnvVarSource{SecretKeyRef: &corev1.SecretKeySelector{
			LocalObjectReference: corev1.LocalObjectReference{Name: "tosca-env"},
			Key:                  key,
			Optional:             ptr.To(false),
		}}
	}
	wantEnv := []corev1.EnvVar{
		{Name: "A", Value: "1"},
		{Name: "PYTHONPATH", Value: "/app"},
		{Name: "AWS_KEY", ValueFrom: secretRef("AWS_KEY")},
		{Name: "AWS_SECRET", ValueFrom: secretRef("AWS_SECRET")},
	}
	if diff := cmp.Diff(wantEnv, main.Env); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}

	k1 := naming.SecretKeyName("/etc/app/config.yaml")
	k2 := naming.SecretKeyName("/opt/config.yaml")
	wantMounts := []corev1.VolumeMount{
		{Name: VolumeExtractedPackage, MountPath: "/opera/csar", SubPath: "csar"},
		{Name: k1, MountPath: "/etc/app/config.yaml", SubPath: "config.yaml", ReadOnly: true},
		{Name: k2, MountPath: "/opt/config.yaml", SubPath: "config.yaml", ReadOnly: true},
	}
	if diff := cmp.Diff(wantMounts, main.VolumeMounts); diff != "" {
		t.Fatalf("mounts mismatch (-want +got):\n%s", diff)
	}

	wantVolumes := []corev1.Volume{
		{Name: VolumeCompressedPackage, VolumeSource: corev1.VolumeSource{ConfigMap: &corev1.ConfigMapVolumeSource{LocalObjectReference: corev1.LocalObjectReference{Name: "tosca"}}}},
		{Name: VolumeExtractedPackage, VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
		{Name: k1, VolumeSource: corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{SecretName: "tosca-file", Items: []corev1.KeyToPath{{Key: k1, Path: "config.yaml"}}}}},
		{Name: k2, VolumeSource: corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{SecretName: "tosca-file", Items: []corev1.KeyToPath{{Key: k2, Path: "config.yaml"}}}}},
	}
	if diff := cmp.Diff(wantVolumes, pod.Volumes); diff != "" {
		t.Fatalf("volumes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDeploymentWithoutSecrets(t *testing.T) {
	dep := BuildDeployment(WorkloadInput{Namespace: testNS, Name: "tosca", Image: "img", Port: 8080, WorkDir: "/w"})
	pod := dep.Spec.Template.Spec
	if len(pod.Volumes) != 2 || pod.ImagePullSecrets != nil || pod.Containers[0].Env != nil {
		t.Fatalf("unexpected pod spec %+v", pod)
	}
	if dep.Spec.Template.Annotations != nil {
		t.Fatalf("unexpected annotations %v", dep.Spec.Template.Annotations)
	}
}

func TestBuildService(t *testing.T) {
	svc := BuildService(testNS, "tosca", DefaultServicePort, 8080)
	if svc.Spec.Type != corev1.ServiceTypeClusterIP {
		t.Fatalf("unexpected type %s", svc.Spec.Type)
	}
	want := []corev1.ServicePort{{Name: "api", Port: 9999, TargetPort: intstr.FromInt32(8080)}}
	if diff := cmp.Diff(want, svc.Spec.Ports); diff != "" {
		t.Fatalf("ports mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStripPrefixMiddleware(t *testing.T) {
	mw := BuildStripPrefixMiddleware("", testNS, StripPrefixMiddlewareName, "/workspace/1/project/2")
	if mw.GetAPIVersion() != "traefik.containo.us/v1alpha1" || mw.GetKind() != "Middleware" {
		t.Fatalf("unexpected type %s %s", mw.GetAPIVersion(), mw.GetKind())
	}
	prefixes, found, err := unstructured.NestedStringSlice(mw.Object, "spec", "stripPrefix", "prefixes")
	if err != nil || !found {
		t.Fatalf("prefixes missing: %v", err)
	}
	if diff := cmp.Diff([]string{"/workspace/1/project/2"}, prefixes); diff != "" {
		t.Fatalf("prefixes mismatch (-want +got):\n%s", diff)
	}
	// must survive a deep copy, which panics on non JSON types
	_ = mw.DeepCopy()
}

func TestBuildIngressRouteRoundTrip(t *testing.T) {
	spec := IngressRouteSpec{
		EntryPoints: []string{"websecure"},
		Routes: []Route{{
			Kind:        RouteKindRule,
			Match:       "Host(`h`) && Path(`/p`)",
			Priority:    5,
			Services:    []RouteService{{Name: "tosca", Port: ptr.To(intstr.FromInt32(9999))}},
			Middlewares: []MiddlewareRef{{Name: "auth"}, {Name: StripPrefixMiddlewareName}},
		}},
		TLS: SecretTLS("cert"),
	}
	obj, err := BuildIngressRoute("", testNS, "tosca", spec)
	if err != nil {
		t.Fatalf("BuildIngressRoute: %v", err)
	}
	obj = obj.DeepCopy()
	got, err := ParseIngressRouteSpec(obj)
	if err != nil {
		t.Fatalf("ParseIngressRouteSpec: %v", err)
	}
	if diff := cmp.Diff(&spec, got); diff != "" {
		t.Fatalf("spec mismatch (-want +got):\n%s", diff)
	}
	routes, _, _ := unstructured.NestedSlice(obj.Object, "spec", "routes")
	svc := routes[0].(map[string]any)["services"].([]any)[0].(map[string]any)
	if svc["port"] != int64(9999) {
		t.Fatalf("service port must be an integer, got %#v", svc["port"])
	}
}

func TestSubmitAcceptsConflict(t *testing.T) {
	ctx := context.Background()
	fc := fakecluster.New()
	cm := BuildConfigMap(testNS, "tosca", []byte("PK"))
	if err := SubmitConfigMap(ctx, fc, cm); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := SubmitConfigMap(ctx, fc, cm); err != nil {
		t.Fatalf("second submit must accept conflict: %v", err)
	}
	if n := fc.Count("UpdateConfigMap"); n != 0 {
		t.Fatalf("unchanged config map updated %d times", n)
	}
	fc.FailOn("CreateService", &model.ClusterAPIError{Kind: model.ClusterErrorForbidden, Op: "create service"})
	err := SubmitService(ctx, fc, BuildService(testNS, "tosca", 9999, 8080))
	if !model.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestSubmitReplacesChangedContent(t *testing.T) {
	ctx := context.Background()
	fc := fakecluster.New()

	if err := SubmitConfigMap(ctx, fc, BuildConfigMap(testNS, "tosca", []byte("PK1"))); err != nil {
		t.Fatalf("submit configmap: %v", err)
	}
	if err := SubmitConfigMap(ctx, fc, BuildConfigMap(testNS, "tosca", []byte("PK2"))); err != nil {
		t.Fatalf("resubmit configmap: %v", err)
	}
	if got := fc.ConfigMap(testNS, "tosca").BinaryData[ConfigMapPackageKey]; string(got) != "PK2" {
		t.Fatalf("config map still holds %q", got)
	}

	in := WorkloadInput{Namespace: testNS, Name: "tosca", Image: "img", Port: 8080, WorkDir: "/app", ContentHash: "aaaaaa"}
	if err := SubmitDeployment(ctx, fc, BuildDeployment(in)); err != nil {
		t.Fatalf("submit deployment: %v", err)
	}
	if err := SubmitDeployment(ctx, fc, BuildDeployment(in)); err != nil {
		t.Fatalf("resubmit deployment: %v", err)
	}
	if n := fc.Count("UpdateDeployment"); n != 0 {
		t.Fatalf("unchanged deployment updated %d times", n)
	}
	in.ContentHash = "bbbbbb"
	if err := SubmitDeployment(ctx, fc, BuildDeployment(in)); err != nil {
		t.Fatalf("submit changed deployment: %v", err)
	}
	if got := fc.Deployment(testNS, "tosca").Spec.Template.Annotations[AnnotationContentHash]; got != "bbbbbb" {
		t.Fatalf("pod template hash = %q, want bbbbbb", got)
	}

	env := BuildEnvSecret(testNS, "tosca", []model.SecretRef{{ID: 1, Env: map[string]string{"A": "1"}}})
	if err := SubmitSecret(ctx, fc, env); err != nil {
		t.Fatalf("submit secret: %v", err)
	}
	env = BuildEnvSecret(testNS, "tosca", []model.SecretRef{{ID: 1, Env: map[string]string{"A": "2"}}})
	if err := SubmitSecret(ctx, fc, env); err != nil {
		t.Fatalf("resubmit secret: %v", err)
	}
	if got := fc.Secret(testNS, "tosca-env").Data["A"]; string(got) != "2" {
		t.Fatalf("secret still holds %q", got)
	}

	fc.FailOn("UpdateDeployment", &model.ClusterAPIError{Kind: model.ClusterErrorForbidden, Op: "update deployment"})
	in.ContentHash = "cccccc"
	if err := SubmitDeployment(ctx, fc, BuildDeployment(in)); !model.IsForbidden(err) {
		t.Fatalf("expected forbidden update error, got %v", err)
	}
}

func TestComputeContentHash(t *testing.T) {
	a := ComputeContentHash([]byte("PK1"), map[string]string{"A": "1"}, testSecrets())
	b := ComputeContentHash([]byte("PK1"), map[string]string{"A": "1"}, testSecrets())
	if a != b || len(a) != 6 {
		t.Fatalf("hash not stable: %s vs %s", a, b)
	}
	if c := ComputeContentHash([]byte("PK2"), map[string]string{"A": "1"}, testSecrets()); c == a {
		t.Fatalf("package change must change the hash")
	}
	if c := ComputeContentHash([]byte("PK1"), map[string]string{"A": "2"}, testSecrets()); c == a {
		t.Fatalf("env change must change the hash")
	}
}
