package kube

import (
	"fmt"
	"time"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/xlab-si/lcm-engine/resources"
)

// Client implements resources.ClusterClient on top of client-go.
// It holds no mutable state after construction and is safe for concurrent use.
type Client struct {
	// RESTConfig is the configuration used to talk to the API server.
	RESTConfig *rest.Config
	// Clientset provides typed clients for core/built-in resources.
	Clientset kubernetes.Interface
	// Dynamic serves custom resources such as Traefik middlewares and ingress routes.
	Dynamic dynamic.Interface

	pingPort    int
	pingTimeout time.Duration
}

// Options controls client construction tuning. All fields are optional.
type Options struct {
	// UserAgent adds a custom user agent to the REST config.
	UserAgent string
	// QPS sets the allowed queries per second on the REST client.
	QPS float32
	// Burst sets the client-side rate limiter burst.
	Burst int
	// Timeout bounds every API request.
	Timeout time.Duration
	// PingPort is the TCP port probed by PingHost.
	PingPort int
	// PingTimeout bounds a single PingHost probe.
	PingTimeout time.Duration
}

// applyDefaults applies reasonable defaults if not set.
func (o *Options) applyDefaults() {
	if o.QPS <= 0 {
		o.QPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 50
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.PingPort <= 0 {
		o.PingPort = 9999
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 2 * time.Second
	}
}

// NewClientFromRESTConfig constructs a Client from an existing rest.Config.
func NewClientFromRESTConfig(cfg *rest.Config, opts *Options) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("REST config is nil")
	}
	if opts == nil {
		opts = &Options{}
	}
	opts.applyDefaults()

	cfg = rest.CopyConfig(cfg)
	cfg.QPS = opts.QPS
	cfg.Burst = opts.Burst
	cfg.Timeout = opts.Timeout
	if opts.UserAgent != "" {
		// AddUserAgent mutates cfg.UserAgent and returns the complete UA string.
		_ = rest.AddUserAgent(cfg, opts.UserAgent)
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build dynamic client: %w", err)
	}

	c := NewClientFromInterfaces(cs, dyn, opts)
	c.RESTConfig = cfg
	return c, nil
}

// NewClientFromInterfaces wraps already constructed clients, e.g. client-go fakes.
func NewClientFromInterfaces(cs kubernetes.Interface, dyn dynamic.Interface, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	opts.applyDefaults()
	return &Client{
		Clientset:   cs,
		Dynamic:     dyn,
		pingPort:    opts.PingPort,
		pingTimeout: opts.PingTimeout,
	}
}

func (c *Client) ready() error {
	if c == nil || c.Clientset == nil {
		return fmt.Errorf("kube client is not initialized")
	}
	return nil
}

// ServerVersion returns the Kubernetes version string.
func (c *Client) ServerVersion() (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	v, err := c.Clientset.Discovery().ServerVersion()
	if err != nil {
		return "", mapError("get server version", err)
	}
	return v.GitVersion, nil
}

var _ resources.ClusterClient = (*Client)(nil)
