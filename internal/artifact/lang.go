package artifact

import (
	"fmt"
	"strings"

	"github.com/sha1n/docsnip/internal/domain"
)

// Syntax describes how an artifact for a language tag is named and commented.
type Syntax struct {
	Ext           string
	CommentPrefix string
	CommentSuffix string
}

var (
	hashComment  = Syntax{CommentPrefix: "#"}
	slashComment = Syntax{CommentPrefix: "//"}
	dashComment  = Syntax{CommentPrefix: "--"}
	xmlComment   = Syntax{CommentPrefix: "<!--", CommentSuffix: " -->"}
	blockComment = Syntax{CommentPrefix: "/*", CommentSuffix: " */"}
)

func withExt(s Syntax, ext string) Syntax {
	s.Ext = ext
	return s
}

// DefaultSyntax applies to empty and unknown language tags.
var DefaultSyntax = withExt(hashComment, "txt")

// languages maps a lower-cased fence tag to its artifact syntax.
// Unknown tags fall back to DefaultSyntax; nothing is inferred from content.
var languages = map[string]Syntax{
	"":           DefaultSyntax,
	"text":       DefaultSyntax,
	"txt":        DefaultSyntax,
	"plaintext":  DefaultSyntax,
	"python":     withExt(hashComment, "py"),
	"py":         withExt(hashComment, "py"),
	"python3":    withExt(hashComment, "py"),
	"bash":       withExt(hashComment, "sh"),
	"sh":         withExt(hashComment, "sh"),
	"shell":      withExt(hashComment, "sh"),
	"zsh":        withExt(hashComment, "sh"),
	"console":    withExt(hashComment, "sh"),
	"javascript": withExt(slashComment, "js"),
	"js":         withExt(slashComment, "js"),
	"jsx":        withExt(slashComment, "jsx"),
	"typescript": withExt(slashComment, "ts"),
	"ts":         withExt(slashComment, "ts"),
	"tsx":        withExt(slashComment, "tsx"),
	"json":       withExt(slashComment, "json"),
	"jsonc":      withExt(slashComment, "json"),
	"go":         withExt(slashComment, "go"),
	"golang":     withExt(slashComment, "go"),
	"java":       withExt(slashComment, "java"),
	"kotlin":     withExt(slashComment, "kt"),
	"scala":      withExt(slashComment, "scala"),
	"c":          withExt(slashComment, "c"),
	"cpp":        withExt(slashComment, "cpp"),
	"c++":        withExt(slashComment, "cpp"),
	"csharp":     withExt(slashComment, "cs"),
	"cs":         withExt(slashComment, "cs"),
	"rust":       withExt(slashComment, "rs"),
	"rs":         withExt(slashComment, "rs"),
	"swift":      withExt(slashComment, "swift"),
	"ruby":       withExt(hashComment, "rb"),
	"rb":         withExt(hashComment, "rb"),
	"r":          withExt(hashComment, "r"),
	"yaml":       withExt(hashComment, "yaml"),
	"yml":        withExt(hashComment, "yaml"),
	"toml":       withExt(hashComment, "toml"),
	"ini":        withExt(Syntax{CommentPrefix: ";"}, "ini"),
	"dockerfile": withExt(hashComment, "dockerfile"),
	"makefile":   withExt(hashComment, "mk"),
	"powershell": withExt(hashComment, "ps1"),
	"sql":        withExt(dashComment, "sql"),
	"lua":        withExt(dashComment, "lua"),
	"haskell":    withExt(dashComment, "hs"),
	"html":       withExt(xmlComment, "html"),
	"xml":        withExt(xmlComment, "xml"),
	"markdown":   withExt(xmlComment, "md"),
	"md":         withExt(xmlComment, "md"),
	"css":        withExt(blockComment, "css"),
	"scss":       withExt(slashComment, "scss"),
}

// Lookup returns the syntax for a fence language tag.
func Lookup(lang string) Syntax {
	if s, ok := languages[strings.ToLower(lang)]; ok {
		return s
	}
	return DefaultSyntax
}

// Header renders the provenance line for a fence of doc, newline included.
// Older artifacts carry a "# " after the comment prefix ("// # Extracted
// from"); headers written here omit it, so compare them with that in mind.
func Header(doc *domain.Document, f domain.Fence) string {
	s := Lookup(f.Lang)
	return fmt.Sprintf("%s Extracted from %s (fence #%d, lang='%s')%s\n",
		s.CommentPrefix, doc.Source, f.Ordinal, f.Lang, s.CommentSuffix)
}
