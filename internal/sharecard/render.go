package sharecard

import (
	"fmt"
	"html/template"
	"io"
)

var page = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="vi">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <meta property="og:type" content="article" />
    <meta property="og:title" content="{{.Title}}" />
    <meta property="og:description" content="{{.Description}}" />
    <meta property="og:url" content="{{.DetailURL}}" />
    <meta property="og:image" content="{{.ImageURL}}" />
    <meta property="og:image:width" content="1200" />
    <meta property="og:image:height" content="630" />
    <meta property="og:site_name" content="Sổ Tay Cho HDV" />
    <meta name="twitter:card" content="summary_large_image" />
    <meta name="twitter:url" content="{{.ShareURL}}" />
    <meta name="twitter:title" content="{{.Title}}" />
    <meta name="twitter:description" content="{{.Description}}" />
    <meta name="twitter:image" content="{{.ImageURL}}" />
    <meta http-equiv="refresh" content="0;url={{.DetailURL}}" />
    <script>
      setTimeout(function () {
        window.location.replace({{.DetailURL}})
      }, 50)
    </script>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; display: flex; align-items: center;
        justify-content: center; min-height: 100vh; background: #f3f4f6; color: #111827;
        padding: 24px; text-align: center; }
      .card { background: white; border-radius: 16px; padding: 32px; max-width: 520px;
        box-shadow: 0 20px 50px rgba(15, 23, 42, 0.1); }
      .card img { width: 100%; border-radius: 12px; margin-bottom: 16px; object-fit: cover; }
      .card a { display: inline-block; margin-top: 12px; color: #2563eb; text-decoration: none;
        font-weight: 600; }
    </style>
  </head>
  <body>
    <div class="card">
      <img src="{{.ImageURL}}" alt="{{.Title}}" />
      <h1>{{.Title}}</h1>
      <p>{{.Description}}</p>
      <a href="{{.DetailURL}}" rel="noopener noreferrer">Đi tới chi tiết</a>
    </div>
  </body>
</html>
`))

// Render writes the share page for card.
func Render(w io.Writer, card Card) error {
	if err := page.Execute(w, card); err != nil {
		return fmt.Errorf("render share card: %w", err)
	}
	return nil
}
