// Package fakecluster provides an in-memory cluster client that records every
// call. It is meant for tests of code written against resources.ClusterClient.
package fakecluster

import (
	"context"
	"fmt"
	"sync"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/xlab-si/lcm-engine/domain/model"
)

// Call is one recorded client invocation.
type Call struct {
	Method    string
	Namespace string
	Name      string
}

// Cluster is an in-memory cluster. The zero value is not usable; call New.
type Cluster struct {
	mu sync.Mutex

	calls       []Call
	failures    map[string]error
	namespaces  map[string]*corev1.Namespace
	configMaps  map[string]*corev1.ConfigMap
	secrets     map[string]*corev1.Secret
	deployments map[string]*appsv1.Deployment
	services    map[string]*corev1.Service
	objects     map[string]*unstructured.Unstructured
	pods        map[string][]corev1.Pod
	logs        map[string][]byte
	reachable   map[string]bool

	// Connected is returned by CheckConnectivity.
	Connected bool
}

func New() *Cluster {
	return &Cluster{
		failures:    map[string]error{},
		namespaces:  map[string]*corev1.Namespace{},
		configMaps:  map[string]*corev1.ConfigMap{},
		secrets:     map[string]*corev1.Secret{},
		deployments: map[string]*appsv1.Deployment{},
		services:    map[string]*corev1.Service{},
		objects:     map[string]*unstructured.Unstructured{},
		pods:        map[string][]corev1.Pod{},
		logs:        map[string][]byte{},
		reachable:   map[string]bool{},
		Connected:   true,
	}
}

// FailOn makes every later call of method return err. A nil err clears the failure.
func (c *Cluster) FailOn(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, method)
		return
	}
	c.failures[method] = err
}

// Calls returns a copy of the recorded calls.
func (c *Cluster) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns how many times method was called.
func (c *Cluster) Count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

// AddSecret stores a secret as if it pre-existed in the cluster.
func (c *Cluster) AddSecret(s *corev1.Secret) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secrets[key(s.Namespace, s.Name)] = s.DeepCopy()
}

// AddCustomObject stores obj under resource gvr.
func (c *Cluster) AddCustomObject(gvr schema.GroupVersionResource, obj *unstructured.Unstructured) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[objKey(gvr, obj.GetNamespace(), obj.GetName())] = obj.DeepCopy()
}

// AddPod stores a pod and its log.
func (c *Cluster) AddPod(pod corev1.Pod, log []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pods[pod.Namespace] = append(c.pods[pod.Namespace], *pod.DeepCopy())
	if log != nil {
		c.logs[key(pod.Namespace, pod.Name)] = log
	}
}

// SetReachable controls the answer of PingHost for host.
func (c *Cluster) SetReachable(host string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reachable[host] = ok
}

func (c *Cluster) Namespace(name string) *corev1.Namespace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namespaces[name]
}

func (c *Cluster) ConfigMap(ns, name string) *corev1.ConfigMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configMaps[key(ns, name)]
}

func (c *Cluster) Secret(ns, name string) *corev1.Secret {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secrets[key(ns, name)]
}

func (c *Cluster) Deployment(ns, name string) *appsv1.Deployment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deployments[key(ns, name)]
}

func (c *Cluster) Service(ns, name string) *corev1.Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services[key(ns, name)]
}

func (c *Cluster) CustomObject(gvr schema.GroupVersionResource, ns, name string) *unstructured.Unstructured {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects[objKey(gvr, ns, name)]
}

func (c *Cluster) record(method, ns, name string) error {
	c.calls = append(c.calls, Call{Method: method, Namespace: ns, Name: name})
	return c.failures[method]
}

func key(ns, name string) string { return ns + "/" + name }

func objKey(gvr schema.GroupVersionResource, ns, name string) string {
	return gvr.String() + "|" + key(ns, name)
}

func conflict(op string) error {
	return &model.ClusterAPIError{Kind: model.ClusterErrorConflict, Op: op, Err: fmt.Errorf("already exists")}
}

func notFound(op string) error {
	return &model.ClusterAPIError{Kind: model.ClusterErrorNotFound, Op: op, Err: fmt.Errorf("not found")}
}

func (c *Cluster) CreateNamespace(_ context.Context, ns *corev1.Namespace) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateNamespace", "", ns.Name); err != nil {
		return err
	}
	if _, ok := c.namespaces[ns.Name]; ok {
		return conflict("create namespace " + ns.Name)
	}
	c.namespaces[ns.Name] = ns.DeepCopy()
	return nil
}

func (c *Cluster) CreateConfigMap(_ context.Context, namespace string, cm *corev1.ConfigMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateConfigMap", namespace, cm.Name); err != nil {
		return err
	}
	k := key(namespace, cm.Name)
	if _, ok := c.configMaps[k]; ok {
		return conflict("create configmap " + k)
	}
	c.configMaps[k] = cm.DeepCopy()
	return nil
}

func (c *Cluster) GetConfigMap(_ context.Context, namespace, name string) (*corev1.ConfigMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("GetConfigMap", namespace, name); err != nil {
		return nil, err
	}
	cm, ok := c.configMaps[key(namespace, name)]
	if !ok {
		return nil, notFound("get configmap " + key(namespace, name))
	}
	return cm.DeepCopy(), nil
}

func (c *Cluster) UpdateConfigMap(_ context.Context, namespace string, cm *corev1.ConfigMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("UpdateConfigMap", namespace, cm.Name); err != nil {
		return err
	}
	k := key(namespace, cm.Name)
	if _, ok := c.configMaps[k]; !ok {
		return notFound("update configmap " + k)
	}
	c.configMaps[k] = cm.DeepCopy()
	return nil
}

func (c *Cluster) CreateSecret(_ context.Context, namespace string, s *corev1.Secret) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateSecret", namespace, s.Name); err != nil {
		return err
	}
	k := key(namespace, s.Name)
	if _, ok := c.secrets[k]; ok {
		return conflict("create secret " + k)
	}
	c.secrets[k] = s.DeepCopy()
	return nil
}

func (c *Cluster) GetSecret(_ context.Context, namespace, name string) (*corev1.Secret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("GetSecret", namespace, name); err != nil {
		return nil, err
	}
	s, ok := c.secrets[key(namespace, name)]
	if !ok {
		return nil, notFound("get secret " + key(namespace, name))
	}
	return s.DeepCopy(), nil
}

func (c *Cluster) UpdateSecret(_ context.Context, namespace string, s *corev1.Secret) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("UpdateSecret", namespace, s.Name); err != nil {
		return err
	}
	k := key(namespace, s.Name)
	if _, ok := c.secrets[k]; !ok {
		return notFound("update secret " + k)
	}
	c.secrets[k] = s.DeepCopy()
	return nil
}

func (c *Cluster) CreateDeployment(_ context.Context, namespace string, d *appsv1.Deployment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateDeployment", namespace, d.Name); err != nil {
		return err
	}
	k := key(namespace, d.Name)
	if _, ok := c.deployments[k]; ok {
		return conflict("create deployment " + k)
	}
	c.deployments[k] = d.DeepCopy()
	return nil
}

func (c *Cluster) GetDeployment(_ context.Context, namespace, name string) (*appsv1.Deployment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("GetDeployment", namespace, name); err != nil {
		return nil, err
	}
	d, ok := c.deployments[key(namespace, name)]
	if !ok {
		return nil, notFound("get deployment " + key(namespace, name))
	}
	return d.DeepCopy(), nil
}

func (c *Cluster) UpdateDeployment(_ context.Context, namespace string, d *appsv1.Deployment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("UpdateDeployment", namespace, d.Name); err != nil {
		return err
	}
	k := key(namespace, d.Name)
	if _, ok := c.deployments[k]; !ok {
		return notFound("update deployment " + k)
	}
	c.deployments[k] = d.DeepCopy()
	return nil
}

func (c *Cluster) CreateService(_ context.Context, namespace string, s *corev1.Service) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateService", namespace, s.Name); err != nil {
		return err
	}
	k := key(namespace, s.Name)
	if _, ok := c.services[k]; ok {
		return conflict("create service " + k)
	}
	c.services[k] = s.DeepCopy()
	return nil
}

func (c *Cluster) CreateCustomObject(_ context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateCustomObject:"+gvr.Resource, namespace, obj.GetName()); err != nil {
		return err
	}
	k := objKey(gvr, namespace, obj.GetName())
	if _, ok := c.objects[k]; ok {
		return conflict("create " + gvr.Resource + " " + key(namespace, obj.GetName()))
	}
	c.objects[k] = obj.DeepCopy()
	return nil
}

func (c *Cluster) GetCustomObject(_ context.Context, gvr schema.GroupVersionResource, namespace, name string) (*unstructured.Unstructured, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("GetCustomObject:"+gvr.Resource, namespace, name); err != nil {
		return nil, err
	}
	obj, ok := c.objects[objKey(gvr, namespace, name)]
	if !ok {
		return nil, notFound("get " + gvr.Resource + " " + key(namespace, name))
	}
	return obj.DeepCopy(), nil
}

func (c *Cluster) ListPods(_ context.Context, namespace string) ([]corev1.Pod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("ListPods", namespace, ""); err != nil {
		return nil, err
	}
	return append([]corev1.Pod(nil), c.pods[namespace]...), nil
}

func (c *Cluster) ReadPodLog(_ context.Context, namespace, pod string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("ReadPodLog", namespace, pod); err != nil {
		return nil, err
	}
	b, ok := c.logs[key(namespace, pod)]
	if !ok {
		return nil, notFound("read log " + key(namespace, pod))
	}
	return b, nil
}

func (c *Cluster) DeleteNamespace(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("DeleteNamespace", "", name); err != nil {
		return err
	}
	if _, ok := c.namespaces[name]; !ok {
		return notFound("delete namespace " + name)
	}
	delete(c.namespaces, name)
	return nil
}

func (c *Cluster) PingHost(_ context.Context, host string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.record("PingHost", "", host)
	return c.reachable[host]
}

func (c *Cluster) CheckConnectivity(_ context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.record("CheckConnectivity", "", "")
	return c.Connected
}
