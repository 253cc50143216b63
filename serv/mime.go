package serv

import (
	"fmt"
	"mime"
	"path"
	"strings"
)

// audioTypes are registered at init so content types do not depend on the
// mime.types files installed on the host.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4a": "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".mid":  "audio/midi",
	".midi": "audio/midi",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".m3u":  "audio/x-mpegurl",
	".m3u8": "application/vnd.apple.mpegurl",
	".pls":  "audio/x-scpls",
}

func init() {
	for ext, typ := range audioTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			panic(err)
		}
	}
}

// addMimeTypes registers extra extension to content type mappings. The
// extension may be given with or without the leading dot.
func addMimeTypes(types map[string]string) error {
	for ext, typ := range types {
		ext = strings.TrimSpace(ext)
		if ext == "" || typ == "" {
			return fmt.Errorf("%w: invalid mime type mapping %q: %q", ErrStartup, ext, typ)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if err := mime.AddExtensionType(strings.ToLower(ext), typ); err != nil {
			return fmt.Errorf("%w: mime type for %s: %s", ErrStartup, ext, err)
		}
	}
	return nil
}

// contentType returns the content type for a file name, or an empty string
// when the extension is unknown.
func contentType(name string) string {
	return mime.TypeByExtension(strings.ToLower(path.Ext(name)))
}
