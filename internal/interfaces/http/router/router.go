package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// API mounts domain route groups under /api/<version> behind shared middleware
type API struct {
	version    string
	middleware []gin.HandlerFunc
	groups     []*DomainGroup
}

// NewAPI creates an API; middleware applies to every mounted group
func NewAPI(version string, middleware ...gin.HandlerFunc) *API {
	if version == "" {
		version = "v1"
	}
	return &API{version: version, middleware: middleware}
}

// Mount queues groups for registration
func (a *API) Mount(groups ...*DomainGroup) *API {
	a.groups = append(a.groups, groups...)
	return a
}

// Setup registers every mounted group on the engine
func (a *API) Setup(engine *gin.Engine) {
	api := engine.Group("/api/"+a.version, a.middleware...)
	for _, g := range a.groups {
		g.register(api)
	}
}

// DomainGroup collects the routes of one resource before they reach gin,
// so route tables read top to bottom in routes.go
type DomainGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(prefix string) *DomainGroup {
	return &DomainGroup{prefix: prefix}
}

// Use adds middleware to this group and its subgroups
func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

func (g *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodGet, path, handlers)
}

func (g *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPost, path, handlers)
}

func (g *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPatch, path, handlers)
}

func (g *DomainGroup) add(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Group returns a nested group under this group's prefix
func (g *DomainGroup) Group(prefix string) *DomainGroup {
	child := NewDomainGroup(prefix)
	g.children = append(g.children, child)
	return child
}

func (g *DomainGroup) register(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range g.children {
		child.register(rg)
	}
}
