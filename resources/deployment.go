package resources

import (
	"context"
	"fmt"
	"path"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/xlab-si/lcm-engine/domain/model"
	"github.com/xlab-si/lcm-engine/internal/naming"
)

// WorkloadInput holds everything BuildDeployment needs.
type WorkloadInput struct {
	Namespace string
	// Name is used for the Deployment, its container, the app label and the config map reference.
	Name            string
	Image           string
	Port            int
	WorkDir         string
	Env             map[string]string
	Secrets         []model.SecretRef
	ImagePullSecret string
	// InitImage defaults to DefaultInitImage.
	InitImage string
	// ContentHash is stamped on the pod template when set.
	ContentHash string
}

// BuildDeployment returns the single replica workload running the deployment service.
// An init container unpacks the package from the config map into an emptyDir
// which the main container mounts at its working directory.
func BuildDeployment(in WorkloadInput) *appsv1.Deployment {
	labels := appLabels(in.Name)
	refs := UniqueSecretRefs(in.Secrets)

	pod := corev1.PodSpec{
		InitContainers: []corev1.Container{buildInitContainer(in)},
		Containers:     []corev1.Container{buildMainContainer(in, refs)},
		Volumes:        buildVolumes(in, refs),
	}
	if in.ImagePullSecret != "" {
		pod.ImagePullSecrets = []corev1.LocalObjectReference{{Name: in.ImagePullSecret}}
	}

	tmpl := corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: labels},
		Spec:       pod,
	}
	if in.ContentHash != "" {
		tmpl.Annotations = map[string]string{AnnotationContentHash: in.ContentHash}
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      in.Name,
			Namespace: in.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: appLabels(in.Name)},
			Template: tmpl,
		},
	}
}

// SubmitDeployment creates dep. An existing deployment whose pod template
// carries another content hash is updated, which rolls its pod.
func SubmitDeployment(ctx context.Context, c ClusterClient, dep *appsv1.Deployment) error {
	err := c.CreateDeployment(ctx, dep.Namespace, dep)
	if err == nil {
		return nil
	}
	if !model.IsConflict(err) {
		return fmt.Errorf("create deployment %s/%s: %w", dep.Namespace, dep.Name, err)
	}
	cur, err := c.GetDeployment(ctx, dep.Namespace, dep.Name)
	if err != nil {
		return fmt.Errorf("get deployment %s/%s: %w", dep.Namespace, dep.Name, err)
	}
	want := dep.Spec.Template.Annotations[AnnotationContentHash]
	if want == "" || cur.Spec.Template.Annotations[AnnotationContentHash] == want {
		return nil
	}
	upd := dep.DeepCopy()
	upd.ResourceVersion = cur.ResourceVersion
	if err := c.UpdateDeployment(ctx, dep.Namespace, upd); err != nil {
		return fmt.Errorf("update deployment %s/%s: %w", dep.Namespace, dep.Name, err)
	}
	return nil
}

func buildInitContainer(in WorkloadInput) corev1.Container {
	image := in.InitImage
	if image == "" {
		image = DefaultInitImage
	}
	return corev1.Container{
		Name:    InitContainerName,
		Image:   image,
		Command: []string{"/bin/sh"},
		Args: []string{
			"-c",
			fmt.Sprintf("unzip -o %s/%s -d '%s'", PackageMountPath, ConfigMapPackageKey, in.WorkDir),
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: VolumeCompressedPackage, MountPath: PackageMountPath, ReadOnly: true},
			{Name: VolumeExtractedPackage, MountPath: in.WorkDir, SubPath: path.Base(in.WorkDir)},
		},
	}
}

func buildMainContainer(in WorkloadInput, refs []model.SecretRef) corev1.Container {
	names := make([]string, 0, len(in.Env))
	for k := range in.Env {
		names = append(names, k)
	}
	sort.Strings(names)

	env := make([]corev1.EnvVar, 0, len(names))
	for _, k := range names {
		env = append(env, corev1.EnvVar{Name: k, Value: in.Env[k]})
	}
	for _, k := range envSecretKeys(refs) {
		env = append(env, corev1.EnvVar{
			Name: k,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: EnvSecretName(in.Name)},
					Key:                  k,
					Optional:             ptr.To(false),
				},
			},
		})
	}

	mounts := []corev1.VolumeMount{
		{Name: VolumeExtractedPackage, MountPath: in.WorkDir, SubPath: path.Base(in.WorkDir)},
	}
	for _, r := range refs {
		if r.File == nil {
			continue
		}
		mounts = append(mounts, corev1.VolumeMount{
			Name:      naming.SecretKeyName(r.File.Path),
			MountPath: r.File.Path,
			SubPath:   path.Base(r.File.Path),
			ReadOnly:  true,
		})
	}

	c := corev1.Container{
		Name:         in.Name,
		Image:        in.Image,
		WorkingDir:   in.WorkDir,
		Ports:        []corev1.ContainerPort{{ContainerPort: int32(in.Port)}},
		VolumeMounts: mounts,
	}
	if len(env) > 0 {
		c.Env = env
	}
	return c
}

func buildVolumes(in WorkloadInput, refs []model.SecretRef) []corev1.Volume {
	volumes := []corev1.Volume{
		{
			Name: VolumeCompressedPackage,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: in.Name},
				},
			},
		},
		{
			Name:         VolumeExtractedPackage,
			VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
		},
	}
	for _, r := range refs {
		if r.File == nil {
			continue
		}
		key := naming.SecretKeyName(r.File.Path)
		volumes = append(volumes, corev1.Volume{
			Name: key,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{
					SecretName: FileSecretName(in.Name),
					Items:      []corev1.KeyToPath{{Key: key, Path: path.Base(r.File.Path)}},
				},
			},
		})
	}
	return volumes
}
