// Package swagger serves the embedded API contract and a Swagger UI page
// rendering it.
package swagger

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
)

const (
	uiPath       = "/docs"
	yamlSpecPath = "/docs/openapi.yml"
	jsonSpecPath = "/docs/openapi.json"

	uiVersion = "5.29.3"
)

var page = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '{{.SpecURL}}',
      dom_id: '#swagger-ui',
      deepLinking: true,
      persistAuthorization: true,
      displayRequestDuration: true,
    });
  };
</script>
</body>
</html>
`))

type pageData struct {
	Title   string
	Version string
	SpecURL string
}

// Register mounts the docs routes on r.
func Register(r chi.Router) {
	var html bytes.Buffer
	if err := page.Execute(&html, pageData{
		Title:   "Product Catalog API",
		Version: uiVersion,
		SpecURL: yamlSpecPath,
	}); err != nil {
		panic(err)
	}
	htmlBytes := html.Bytes()

	r.Get(uiPath, func(w http.ResponseWriter, _ *http.Request) {
		write(w, "text/html; charset=utf-8", htmlBytes)
	})

	r.Get(yamlSpecPath, func(w http.ResponseWriter, _ *http.Request) {
		write(w, "application/yaml", apicontract.GetSpecBytes())
	})

	jsonSpec := sync.OnceValues(func() ([]byte, error) {
		doc, err := apicontract.Load(context.Background())
		if err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	})
	r.Get(jsonSpecPath, func(w http.ResponseWriter, _ *http.Request) {
		b, err := jsonSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		write(w, "application/json", b)
	})
}

func write(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(body)
}
