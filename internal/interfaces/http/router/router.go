// Package router mounts the leasing API resources under a versioned prefix.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registrar attaches its routes to a parent group
type Registrar interface {
	RegisterRoutes(parent *gin.RouterGroup)
}

// Router owns the /api/<version> group and the resources mounted on it
type Router struct {
	engine    *gin.Engine
	version   string
	shared    []gin.HandlerFunc
	resources []Registrar
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion overrides the "v1" prefix
func WithAPIVersion(version string) Option {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware scoped to the API group; routes mounted directly on the
// engine (health) do not see it.
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.shared = append(r.shared, mw...)
	return r
}

func (r *Router) Register(resources ...Registrar) *Router {
	r.resources = append(r.resources, resources...)
	return r
}

// Prefix returns the API path prefix, e.g. "/api/v1"
func (r *Router) Prefix() string {
	return "/api/" + r.version
}

// Setup mounts every registered resource. Call it once.
func (r *Router) Setup() {
	api := r.engine.Group(r.Prefix(), r.shared...)
	for _, res := range r.resources {
		res.RegisterRoutes(api)
	}
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// Resource is one REST resource (tenants, leases, ...) with its routes and
// optional nested resources.
type Resource struct {
	path       string
	middleware []gin.HandlerFunc
	routes     []route
	nested     []*Resource
}

// NewResource starts a resource mounted at path
func NewResource(path string) *Resource {
	return &Resource{path: path}
}

// Path returns the mount path relative to the parent
func (res *Resource) Path() string {
	return res.path
}

// Use adds middleware to this resource and its nested resources
func (res *Resource) Use(mw ...gin.HandlerFunc) *Resource {
	res.middleware = append(res.middleware, mw...)
	return res
}

// Handle adds a route; the verb helpers below delegate to it
func (res *Resource) Handle(method, path string, handlers ...gin.HandlerFunc) *Resource {
	res.routes = append(res.routes, route{method: method, path: path, handlers: handlers})
	return res
}

func (res *Resource) GET(path string, h ...gin.HandlerFunc) *Resource {
	return res.Handle(http.MethodGet, path, h...)
}

func (res *Resource) POST(path string, h ...gin.HandlerFunc) *Resource {
	return res.Handle(http.MethodPost, path, h...)
}

func (res *Resource) PUT(path string, h ...gin.HandlerFunc) *Resource {
	return res.Handle(http.MethodPut, path, h...)
}

func (res *Resource) DELETE(path string, h ...gin.HandlerFunc) *Resource {
	return res.Handle(http.MethodDelete, path, h...)
}

// Nest returns a child resource mounted below this one
func (res *Resource) Nest(path string) *Resource {
	child := NewResource(path)
	res.nested = append(res.nested, child)
	return child
}

// RegisterRoutes implements Registrar
func (res *Resource) RegisterRoutes(parent *gin.RouterGroup) {
	g := parent.Group(res.path, res.middleware...)
	for _, rt := range res.routes {
		g.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range res.nested {
		child.RegisterRoutes(g)
	}
}
