package resources

// Label and annotation keys stamped on tenant resources.
// Keep these constants stable; changes are API-visible in clusters.
const (
	// Domain is the namespace domain for lcm-engine custom labels and annotations.
	Domain = "lcm-engine.xlab.si"

	ManagedBy = "lcm-engine"

	LabelAppK8sName      = "app.kubernetes.io/name"
	LabelAppK8sManagedBy = "app.kubernetes.io/managed-by"

	LabelAppSelector = "app"
	LabelWorkspaceID = Domain + "/workspace-id"
	LabelProjectID   = Domain + "/project-id"

	AnnotationContentHash = Domain + "/content-hash"
)

// Fixed names of tenant resources.
const (
	ConfigMapPackageKey       = "csar.zip"
	VolumeCompressedPackage   = "compressed-deployment-package"
	VolumeExtractedPackage    = "extracted-deployment-package"
	InitContainerName         = "prepare-directory-structure"
	DefaultInitImage          = "public.ecr.aws/docker/library/busybox"
	PackageMountPath          = "/data"
	ServicePortName           = "api"
	DefaultServicePort        = 9999
	StripPrefixMiddlewareName = "strip-path-prefix"
	DefaultRoutePriority      = 5
)

func appLabels(name string) map[string]string {
	return map[string]string{LabelAppSelector: name}
}
