package models

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

type KubeUtil interface {
	KubeClient() kubernetes.Interface
	CurrentNamespace() string
}

type kubeUtil struct {
	kubeClient kubernetes.Interface
	namespace  string
}

// NewKubeUtil Connects to the cluster named by the configuration
func NewKubeUtil(cfg *Config) (KubeUtil, error) {
	config, err := getClusterConfig(cfg.Kubeconfig)
	if err != nil {
		return nil, &ConfigurationError{Key: "kubeconfig", Err: err}
	}
	kubeClient, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create k8s client: %w", err)
	}
	return NewKubeUtilForClient(kubeClient, cfg.Namespace), nil
}

// NewKubeUtilForClient Wraps an existing client, used by tests with a fake clientset
func NewKubeUtilForClient(kubeClient kubernetes.Interface, namespace string) KubeUtil {
	return &kubeUtil{kubeClient: kubeClient, namespace: namespace}
}

func (kube *kubeUtil) KubeClient() kubernetes.Interface {
	return kube.kubeClient
}

func (kube *kubeUtil) CurrentNamespace() string {
	return kube.namespace
}

// getClusterConfig Uses an explicit kubeconfig when given, otherwise in-cluster config, then $KUBECONFIG or ~/.kube/config
func getClusterConfig(kubeconfig string) (*rest.Config, error) {
	if len(kubeconfig) > 0 {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	config, err := rest.InClusterConfig()
	if err == nil {
		return config, nil
	}
	kubeConfigPath := os.Getenv("KUBECONFIG")
	if len(kubeConfigPath) == 0 {
		kubeConfigPath = filepath.Join(os.Getenv("HOME"), ".kube", "config")
	}
	config, fileErr := clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	if fileErr != nil {
		return nil, fmt.Errorf("getClusterConfig InClusterConfig: %v, %s: %w", err, kubeConfigPath, fileErr)
	}
	return config, nil
}
