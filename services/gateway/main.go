package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// upstream associa um prefixo de rota ao serviço que o atende
type upstream struct {
	prefix string
	target string
}

// newRouter monta o roteador do gateway: repassa as requisições pelo prefixo
// do path, sem alterar o path, para o serviço de destino.
func newRouter(upstreams []upstream) (*gin.Engine, error) {
	type route struct {
		prefix string
		proxy  *httputil.ReverseProxy
	}

	routes := make([]route, 0, len(upstreams))
	for _, u := range upstreams {
		target, err := url.Parse(u.target)
		if err != nil {
			return nil, err
		}
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
			log.Printf("❌ Gateway error | %s %s | %v", req.Method, req.URL.Path, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"Upstream unavailable"}`))
		}
		routes = append(routes, route{prefix: u.prefix, proxy: proxy})
	}

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API Gateway is running"})
	})

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, rt := range routes {
			if path == rt.prefix || strings.HasPrefix(path, rt.prefix+"/") {
				rt.proxy.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	return r, nil
}

func main() {
	upstreams := []upstream{
		{prefix: "/api/auth", target: getEnv("AUTH_SERVICE_URL", "http://auth-service:5001")},
		{prefix: "/api/products", target: getEnv("PRODUCTS_SERVICE_URL", "http://products-service:5002")},
		{prefix: "/api/orders", target: getEnv("ORDERS_SERVICE_URL", "http://orders-service:5003")},
		{prefix: "/api/payments", target: getEnv("PAYMENTS_SERVICE_URL", "http://payments-service:5004")},
		{prefix: "/api/users", target: getEnv("USERS_SERVICE_URL", "http://users-service:5005")},
	}

	r, err := newRouter(upstreams)
	if err != nil {
		log.Fatalf("Failed to build gateway router: %v", err)
	}

	port := getEnv("PORT", "5000")
	log.Printf("🚀 API Gateway listening on port %s", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
