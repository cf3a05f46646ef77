package defaults

const (
	//K8sJobNameLabel A label that k8s automatically adds to a Pod created by a Job
	K8sJobNameLabel = "job-name"
	//ManagedByLabel Label identifying the component that owns a resource
	ManagedByLabel = "app.kubernetes.io/managed-by"
	//ManagedByValue Value of ManagedByLabel on every workload this service creates
	ManagedByValue = "zefiro-job"
	//WorkloadLabel Label holding the workload id
	WorkloadLabel = "zefiro.io/workload"
	//InputsVolumeName Name of the volume holding step inputs
	InputsVolumeName = "inputs"
	//OutputsVolumeName Name of the volume receiving step outputs
	OutputsVolumeName = "outputs"
)

//LabelsForWorkload Labels put on the Job and its pod template
func LabelsForWorkload(id string) map[string]string {
	return map[string]string{
		ManagedByLabel: ManagedByValue,
		WorkloadLabel:  id,
	}
}
