package cli_test

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/typing/internal/cli"
)

const typesJSON = `[
	// shared by everything on the shelf
	{"name": "Media", "fields": [{"name": "tags"}], "hooks": {"on_create": "log"}},
	{
		"name": "Book",
		"parents": ["Media"],
		"folder": "Books",
		"prefix": {"pattern": "\\d{8}", "layout": "20060102"},
		"fields": [{"name": "author"}, {"name": "year", "default": "unknown"}],
		"actions": [{"name": "archive", "callback": "archive"}],
		"methods": [{"name": "title", "callback": "title"}, {"name": "get", "callback": "field"}],
	},
]`

func newVault(t *testing.T) *cli.CLI {
	t.Helper()

	c := cli.NewCLI(t)
	c.WriteFile("typing.json", typesJSON)

	return c
}

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "vault_dir="+c.Dir)
	cli.AssertContains(t, stdout, "types_file=typing.json")
	cli.AssertContains(t, stdout, "type_marker=_type")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_From_Config_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".typing.json", `{
		// vault lives one level down
		"vault_dir": "notes",
		"index_path": "",
	}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "vault_dir="+c.Dir+"/notes")
	cli.AssertContains(t, stdout, "index_path=\n")
	cli.AssertContains(t, stdout, "project_config=")
}

func Test_Run_PrintsUsage_When_NoCommand(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun()

	cli.AssertContains(t, stdout, "Usage: typing")
	cli.AssertContains(t, stdout, "rename <path> [flags]")

	stderr := c.MustFail("frobnicate")
	cli.AssertContains(t, stderr, "unknown command: frobnicate")
}

func Test_Command_PrintsHelp_When_HelpFlag(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("new", "--help")

	cli.AssertContains(t, stdout, "Usage: typing new <type> [title] [flags]")
	cli.AssertContains(t, stdout, "--interactive")
}

func Test_Types_ListsGraph(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	stdout := c.MustRun("types")

	assert.Equal(t, "Media\t-\t-\t-\nBook\tMedia\tBooks\tcreateable", stdout)
}

func Test_Type_ShowsMergedSchema(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	stdout := c.MustRun("type", "Book")

	cli.AssertContains(t, stdout, "ancestors=Media")
	cli.AssertContains(t, stdout, "prefix=\\d{8}")
	cli.AssertContains(t, stdout, "field author (Book, auto)")
	cli.AssertContains(t, stdout, "field year (Book, auto) default=unknown")
	cli.AssertContains(t, stdout, "field tags (Media, auto)")
	cli.AssertContains(t, stdout, "action archive -> archive (Book)")
	cli.AssertContains(t, stdout, "hook on_create -> log")

	stderr := c.MustFail("type", "Nope")
	cli.AssertContains(t, stderr, "no such type")
}

func Test_Types_Fails_When_TypesFileInvalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("typing.json", `[{"name": "Book", "parents": ["Ghost"]}]`)

	stderr := c.MustFail("types")
	cli.AssertContains(t, stderr, "unknown parent type")
	cli.AssertContains(t, stderr, "type=Book")
}

func Test_New_CreatesNoteWithDefaults(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	path := c.MustRun("new", "Book", "Dune", "--prefix", "20240101", "-f", "author=Herbert")

	assert.Equal(t, "Books/20240101 Dune.md", path)

	text := c.ReadFile(path)
	cli.AssertContains(t, text, "author: Herbert\n")
	cli.AssertContains(t, text, "year: unknown\n")

	assert.Equal(t, "Herbert", c.MustRun("get", path, "author"))
	assert.Equal(t, "unknown", c.MustRun("get", path, "year"))

	stderr := c.MustFail("new", "Book", "Dune", "--prefix", "20240101")
	cli.AssertContains(t, stderr, "already exists")
}

func Test_New_Fails_When_TypeCannotBeCreated(t *testing.T) {
	t.Parallel()

	c := newVault(t)

	for _, tc := range []struct {
		args []string
		want string
	}{
		{args: []string{"new", "Media", "x"}, want: "type is not createable"},
		{args: []string{"new", "Book", "x", "--prefix", "abc"}, want: "invalid prefix"},
		{args: []string{"new", "Book", "x", "-f", "oops"}, want: "expected key=value"},
		{args: []string{"new"}, want: "type name is required"},
	} {
		stderr := c.MustFail(tc.args...)
		cli.AssertContains(t, stderr, tc.want)
	}
}

func Test_New_PromptsForValues_When_Interactive(t *testing.T) {
	t.Parallel()

	c := newVault(t)

	stdout, stderr, code := c.RunWithInput("Dune\nHerbert\n\nclassic\n", "new", "Book", "--prefix", "20240101", "-i")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Books/20240101 Dune.md\n", stdout)
	cli.AssertContains(t, stderr, "year (Book) [unknown]: ")

	assert.Equal(t, "Herbert", c.MustRun("get", "Books/20240101 Dune.md", "author"))
	assert.Equal(t, "unknown", c.MustRun("get", "Books/20240101 Dune.md", "year"))
	assert.Equal(t, "classic", c.MustRun("get", "Books/20240101 Dune.md", "tags"))
}

func Test_Show_PrintsTypeAndFields(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/20240101 Dune.md", "---\nauthor: Herbert\n---\nyear:: 1965\n")

	stdout := c.MustRun("show", "Books/20240101 Dune.md")

	cli.AssertContains(t, stdout, "type=Book")
	cli.AssertContains(t, stdout, "prefix=20240101")
	cli.AssertContains(t, stdout, "title=Dune")
	cli.AssertContains(t, stdout, "author=Herbert")
	cli.AssertContains(t, stdout, "year=1965")
	cli.AssertContains(t, stdout, "tags (unset)")

	c.WriteFile("loose.md", "")

	stdout = c.MustRun("show", "loose.md")
	cli.AssertContains(t, stdout, "type=<untyped>")
}

func Test_Show_Warns_When_FieldUnreadable(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/Broken.md", "---\nauthor: \"unterminated\n---\n")

	stdout, stderr, code := c.Run("show", "Books/Broken.md")
	assert.Equal(t, 1, code)
	cli.AssertContains(t, stdout, "author (unreadable)")
	cli.AssertContains(t, stderr, "warning: Books/Broken.md")
}

func Test_Set_UpdatesFields(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/Dune.md", "---\nauthor: Herbert\n---\n# Dune\n")

	c.MustRun("set", "Books/Dune.md", "year=1965", "author=F. Herbert")

	assert.Equal(t, "1965", c.MustRun("get", "Books/Dune.md", "year"))
	assert.Equal(t, "F. Herbert", c.MustRun("get", "Books/Dune.md", "author"))
	cli.AssertContains(t, c.ReadFile("Books/Dune.md"), "# Dune\n")

	stderr := c.MustFail("set", "Books/Dune.md", "isbn=1")
	cli.AssertContains(t, stderr, "unknown field")

	stderr = c.MustFail("get", "Books/Dune.md", "tags")
	cli.AssertContains(t, stderr, "field not set")

	stderr = c.MustFail("set", "loose.md", "a=b")
	cli.AssertContains(t, stderr, "note is untyped")
}

func Test_Rename_ComposesFilename(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/20240101 Dune.md", "")

	path := c.MustRun("rename", "Books/20240101 Dune.md", "--title", "Dune Messiah")
	assert.Equal(t, "Books/20240101 Dune Messiah.md", path)
	assert.True(t, c.Exists(path))
	assert.False(t, c.Exists("Books/20240101 Dune.md"))

	path = c.MustRun("rename", path, "--prefix", "19690101")
	assert.Equal(t, "Books/19690101 Dune Messiah.md", path)

	c.WriteFile("Books/Taken.md", "")

	stderr := c.MustFail("rename", path, "--to", "Books/Taken.md")
	cli.AssertContains(t, stderr, "already exists")
}

func Test_Ls_ListsNotesWithColumns(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/B.md", "---\nauthor: Le Guin\n---\n")
	c.WriteFile("Books/A.md", "author:: Herbert\n")
	c.WriteFile("Books/notes.txt", "")
	c.WriteFile("Books/Sub/C.md", "")

	assert.Equal(t, "Books/A.md\nBooks/B.md", c.MustRun("ls", "Book"))
	assert.Equal(t, "Books/A.md\tHerbert\nBooks/B.md\tLe Guin", c.MustRun("ls", "Book", "-f", "author"))

	stderr := c.MustFail("ls", "Media")
	cli.AssertContains(t, stderr, "type is not createable")
}

func Test_Run_ArchivesNote(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/Dune.md", "")

	assert.Equal(t, "Archive/Books/Dune.md", c.MustRun("run", "Books/Dune.md", "archive"))
	assert.True(t, c.Exists("Archive/Books/Dune.md"))

	c.WriteFile("Books/Other.md", "")

	stderr := c.MustFail("run", "Books/Other.md", "burn")
	cli.AssertContains(t, stderr, "unknown action")
}

func Test_Call_PrintsMethodResult(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/20240101 Dune.md", "author:: Herbert\n")

	assert.Equal(t, "Dune", c.MustRun("call", "Books/20240101 Dune.md", "title"))
	assert.Equal(t, "Herbert", c.MustRun("call", "Books/20240101 Dune.md", "get", "author"))

	stderr := c.MustFail("call", "Books/20240101 Dune.md", "get")
	cli.AssertContains(t, stderr, "wrong number of method arguments")
}

func Test_Check_ReportsBrokenNotes(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/20240101 Good.md", "author:: Herbert\n")

	assert.Equal(t, "2 types, 1 notes checked", c.MustRun("check"))

	c.WriteFile("Books/Unprefixed.md", "---\nauthor: \"oops\n---\n")

	stdout, stderr, code := c.Run("check")
	assert.Equal(t, 1, code)
	assert.Equal(t, "2 types, 2 notes checked\n", stdout)
	cli.AssertContains(t, stderr, "Books/Unprefixed.md: filename has no")
	cli.AssertContains(t, stderr, "warning: Books/Unprefixed.md")
}

func Test_Reindex_CountsDocuments(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile("Books/A.md", "")
	c.WriteFile(".obsidian/app.json", "{}")

	stderr := c.MustFail("reindex")
	cli.AssertContains(t, stderr, "index is disabled")

	c.WriteFile(".typing.json", `{"index_path": ".typing/index.sqlite"}`)

	assert.Equal(t, "indexed 3 documents", c.MustRun("reindex"), "typing.json, .typing.json and Books/A.md")
	assert.True(t, c.Exists(".typing/index.sqlite"))
}

func Test_Index_TracksCliChanges_When_Enabled(t *testing.T) {
	t.Parallel()

	c := newVault(t)
	c.WriteFile(".typing.json", `{"index_path": ".typing/index.sqlite"}`)
	c.WriteFile("Books/20240102 A.md", "")

	assert.Equal(t, "Books/20240102 A.md", c.MustRun("ls", "Book"))

	c.MustRun("new", "Book", "Dune", "--prefix", "20240101")
	c.MustRun("rename", "Books/20240102 A.md", "--title", "Z")

	assert.Equal(t, "Books/20240101 Dune.md\nBooks/20240102 Z.md", c.MustRun("ls", "Book"))

	c.WriteFile("Books/20240103 Outside.md", "")
	assert.Equal(t, "Books/20240101 Dune.md\nBooks/20240102 Z.md", c.MustRun("ls", "Book"), "edits outside the CLI need a reindex")

	assert.Equal(t, "2 types, 3 notes checked", c.MustRun("check"))
	assert.Equal(t, "Books/20240101 Dune.md\nBooks/20240102 Z.md\nBooks/20240103 Outside.md", c.MustRun("ls", "Book"))
}

func Test_Watch_StopsOnSignal(t *testing.T) {
	t.Parallel()

	c := newVault(t)

	sig := make(chan os.Signal, 1)
	timer := time.AfterFunc(200*time.Millisecond, func() { sig <- os.Interrupt })

	defer timer.Stop()

	var out, errOut bytes.Buffer

	code := cli.Run(strings.NewReader(""), &out, &errOut, []string{"typing", "-C", c.Dir, "watch"}, nil, sig)
	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, "watching typing.json\n", out.String())
}
