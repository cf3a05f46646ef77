package actions

import (
	"math"

	"github.com/equinor/radix-common/utils/pointers"
	"github.com/zefiro/zefiro-job/defaults"
	"github.com/zefiro/zefiro-job/models"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WorkloadConfig Cluster settings applied to every workload spec
type WorkloadConfig struct {
	Namespace       string
	InputsDir       string
	OutputsDir      string
	ImagePullPolicy corev1.PullPolicy
	TTLFloorSeconds int32
}

// NewWorkloadConfig Builds the workload settings from the service configuration
func NewWorkloadConfig(cfg *models.Config) WorkloadConfig {
	return WorkloadConfig{
		Namespace:       cfg.Namespace,
		InputsDir:       cfg.InputsDir,
		OutputsDir:      cfg.OutputsDir,
		ImagePullPolicy: corev1.PullPolicy(cfg.ImagePullPolicy),
		TTLFloorSeconds: cfg.TTLFloor(),
	}
}

// BuildWorkloadSpec Translates a validated run request into a Job. The result depends only on the arguments
func BuildWorkloadSpec(request models.RunRequest, cfg WorkloadConfig) *batchv1.Job {
	builder := workloadBuilder{request: request, cfg: cfg}
	return builder.build()
}

type workloadBuilder struct {
	request models.RunRequest
	cfg     WorkloadConfig
}

func (b *workloadBuilder) build() *batchv1.Job {
	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      b.request.ID,
			Namespace: b.cfg.Namespace,
			Labels:    defaults.LabelsForWorkload(b.request.ID),
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            pointers.Ptr[int32](0),
			ActiveDeadlineSeconds:   b.activeDeadlineSeconds(),
			TTLSecondsAfterFinished: pointers.Ptr(b.ttlSecondsAfterFinished()),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: defaults.LabelsForWorkload(b.request.ID),
				},
				Spec: corev1.PodSpec{
					RestartPolicy:     corev1.RestartPolicyNever,
					PriorityClassName: b.request.Priority.String(),
					Containers:        []corev1.Container{b.buildContainer()},
					Volumes:           b.buildVolumes(),
				},
			},
		},
	}
}

func (b *workloadBuilder) buildContainer() corev1.Container {
	return corev1.Container{
		Name:            b.request.ID,
		Image:           b.request.Image,
		Args:            append([]string(nil), b.request.Args...),
		ImagePullPolicy: b.cfg.ImagePullPolicy,
		Resources:       b.buildResources(),
		VolumeMounts: []corev1.VolumeMount{
			{Name: defaults.InputsVolumeName, MountPath: b.cfg.InputsDir},
			{Name: defaults.OutputsVolumeName, MountPath: b.cfg.OutputsDir},
		},
	}
}

func (b *workloadBuilder) buildResources() corev1.ResourceRequirements {
	resources := corev1.ResourceRequirements{
		Requests: b.request.MinResources.ResourceList(),
	}
	if b.request.MaxResources != nil {
		resources.Limits = b.request.MaxResources.ResourceList()
	}
	return resources
}

func (b *workloadBuilder) buildVolumes() []corev1.Volume {
	return []corev1.Volume{
		hostPathVolume(defaults.InputsVolumeName, b.cfg.InputsDir),
		hostPathVolume(defaults.OutputsVolumeName, b.cfg.OutputsDir),
	}
}

// activeDeadlineSeconds is nil for a zero time limit since the API rejects a zero deadline
func (b *workloadBuilder) activeDeadlineSeconds() *int64 {
	if b.request.TimeLimit == 0 {
		return nil
	}
	return pointers.Ptr(int64(b.request.TimeLimit))
}

func (b *workloadBuilder) ttlSecondsAfterFinished() int32 {
	if b.request.TimeLimit > math.MaxInt32 {
		return math.MaxInt32
	}
	return max(int32(b.request.TimeLimit), b.cfg.TTLFloorSeconds)
}

func hostPathVolume(name, path string) corev1.Volume {
	return corev1.Volume{
		Name: name,
		VolumeSource: corev1.VolumeSource{
			HostPath: &corev1.HostPathVolumeSource{
				Path: path,
				Type: pointers.Ptr(corev1.HostPathDirectory),
			},
		},
	}
}
