package formschema

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.css assets/*.js
var embeddedAssets embed.FS

// AssetsFS exposes the stylesheet and the async option script used by the
// HTML renderer's document pages.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formschema.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
