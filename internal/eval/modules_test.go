package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
)

func greetings() ast.Statement {
	return moduleStmt("greetings",
		exported(defStmt("hello", nil, exprStmt(strL("hello")))),
		exported(defStmt("hi", nil, exprStmt(strL("hi")))),
		exported(envEntry("MYNAME", exprStmt(strL("Arthur")))),
	)
}

func TestBareUseImportsQualifiedNames(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings"),
		callStmt("greetings hello"),
	)
	require.Equal(t, "hello", got)
}

func TestBareUseDoesNotImportBareNames(t *testing.T) {
	err := runErr(t,
		greetings(),
		useStmt("greetings"),
		callStmt("hello"),
	)
	require.Equal(t, diag.CommandNotFound, err.Kind)
}

func TestGlobUseImportsBareNames(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings", ast.GlobMember(sp())),
		callStmt("hi"),
	)
	require.Equal(t, "hi", got)
}

func TestSingleNameImportIsExact(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings", ast.NameMember("hello", sp())),
		callStmt("hello"),
	)
	require.Equal(t, "hello", got)

	err := runErr(t,
		greetings(),
		useStmt("greetings", ast.NameMember("hello", sp())),
		callStmt("hi"),
	)
	require.Equal(t, diag.CommandNotFound, err.Kind)
}

func TestListImportIsExact(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings", ast.ListMember([]string{"hello", "hi"}, sp())),
		exprStmt(&ast.BinaryOp{
			Op:  "+",
			Lhs: subExpr(callStmt("hello")),
			Rhs: subExpr(callStmt("hi")),
			Sp:  sp(),
		}),
	)
	require.Equal(t, "hellohi", got)
}

func TestImportMissingNameFails(t *testing.T) {
	err := runErr(t,
		greetings(),
		useStmt("greetings", ast.NameMember("goodbye", sp())),
	)
	require.Equal(t, diag.ImportSymbolMissing, err.Kind)
	require.Contains(t, err.Error(), "could not find import 'goodbye'")
}

func TestImportUnexportedNameFails(t *testing.T) {
	err := runErr(t,
		moduleStmt("secrets",
			internal(defStmt("hidden", nil, exprStmt(strL("no")))),
			exported(defStmt("public", nil, exprStmt(strL("yes")))),
		),
		useStmt("secrets", ast.NameMember("hidden", sp())),
	)
	require.Equal(t, diag.ImportSymbolMissing, err.Kind)
}

func TestGlobSkipsUnexportedNames(t *testing.T) {
	err := runErr(t,
		moduleStmt("secrets",
			internal(defStmt("hidden", nil, exprStmt(strL("no")))),
			exported(defStmt("public", nil, exprStmt(strL("yes")))),
		),
		useStmt("secrets", ast.GlobMember(sp())),
		callStmt("hidden"),
	)
	require.Equal(t, diag.CommandNotFound, err.Kind)
}

func TestExportedCommandMayCallInternalCommand(t *testing.T) {
	got := runString(t,
		moduleStmt("spam",
			internal(defStmt("helper", nil, exprStmt(strL("bar")))),
			exported(defStmt("foo", nil, callStmt("helper"))),
		),
		useStmt("spam", ast.NameMember("foo", sp())),
		callStmt("foo"),
	)
	require.Equal(t, "bar", got)
}

func TestEnvExportImportedWithGlob(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings", ast.GlobMember(sp())),
		callStmt("get-env", strL("MYNAME")),
	)
	require.Equal(t, "Arthur", got)
}

func TestEnvExportImportedQualified(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings"),
		callStmt("get-env", strL("greetings MYNAME")),
	)
	require.Equal(t, "Arthur", got)
}

func TestSingleNameImportBringsCommandAndEnv(t *testing.T) {
	got := runString(t,
		moduleStmt("both",
			exported(defStmt("spam", nil, exprStmt(strL("from-def")))),
			exported(envEntry("spam", exprStmt(strL("from-env")))),
		),
		useStmt("both", ast.NameMember("spam", sp())),
		exprStmt(&ast.BinaryOp{
			Op:  "+",
			Lhs: subExpr(callStmt("spam")),
			Rhs: subExpr(callStmt("get-env", strL("spam"))),
			Sp:  sp(),
		}),
	)
	require.Equal(t, "from-deffrom-env", got)
}

func TestHideImportedCommandLeavesEnv(t *testing.T) {
	got := runString(t,
		moduleStmt("both",
			exported(defStmt("spam", nil, exprStmt(strL("from-def")))),
			exported(envEntry("spam", exprStmt(strL("from-env")))),
		),
		useStmt("both", ast.NameMember("spam", sp())),
		hideStmt("spam"),
		callStmt("get-env", strL("spam")),
	)
	require.Equal(t, "from-env", got)

	err := runErr(t,
		moduleStmt("both",
			exported(defStmt("spam", nil, exprStmt(strL("from-def")))),
			exported(envEntry("spam", exprStmt(strL("from-env")))),
		),
		useStmt("both", ast.NameMember("spam", sp())),
		hideStmt("spam"),
		callStmt("spam"),
	)
	require.Equal(t, diag.CommandNotFound, err.Kind)
}

func TestHideUnqualifiedHidesEnvAfterCommand(t *testing.T) {
	err := runErr(t,
		moduleStmt("both",
			exported(defStmt("spam", nil, exprStmt(strL("from-def")))),
			exported(envEntry("spam", exprStmt(strL("from-env")))),
		),
		useStmt("both", ast.NameMember("spam", sp())),
		hideStmt("spam"),
		hideStmt("spam"),
		callStmt("get-env", strL("spam")),
	)
	require.Equal(t, diag.EnvVarNotFound, err.Kind)
}

func TestQualifiedHideHidesModuleImports(t *testing.T) {
	err := runErr(t,
		greetings(),
		useStmt("greetings", ast.GlobMember(sp())),
		hideStmt("greetings", ast.GlobMember(sp())),
		callStmt("hello"),
	)
	require.Equal(t, diag.CommandNotFound, err.Kind)
}

func TestQualifiedHideSingleName(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings", ast.GlobMember(sp())),
		hideStmt("greetings", ast.NameMember("hello", sp())),
		callStmt("hi"),
	)
	require.Equal(t, "hi", got)
}

func TestUseAfterHideReimports(t *testing.T) {
	got := runString(t,
		greetings(),
		useStmt("greetings", ast.NameMember("hello", sp())),
		hideStmt("hello"),
		useStmt("greetings", ast.NameMember("hello", sp())),
		callStmt("hello"),
	)
	require.Equal(t, "hello", got)
}

func TestModuleInternalsNotVisibleOutside(t *testing.T) {
	err := runErr(t,
		moduleStmt("spam",
			internal(defStmt("helper", nil, exprStmt(strL("no")))),
			exported(defStmt("foo", nil, callStmt("helper"))),
		),
		callStmt("helper"),
	)
	require.Equal(t, diag.CommandNotFound, err.Kind)
}

func TestUseUnknownModuleFails(t *testing.T) {
	err := runErr(t, useStmt("nonexistent"))
	require.Equal(t, diag.ImportSymbolMissing, err.Kind)
}

func TestLetEnvAndGetEnv(t *testing.T) {
	got := runString(t,
		letEnvStmt("FOO", strL("bar")),
		callStmt("get-env", strL("FOO")),
	)
	require.Equal(t, "bar", got)
}

func TestEnvDoesNotLeakFromBlock(t *testing.T) {
	err := runErr(t,
		exprStmt(subExpr(letEnvStmt("SCOPED", strL("x")))),
		callStmt("get-env", strL("SCOPED")),
	)
	require.Equal(t, diag.EnvVarNotFound, err.Kind)
}

func TestGetEnvSuggestsNearestName(t *testing.T) {
	err := runErr(t,
		letEnvStmt("name", strL("x")),
		callStmt("get-env", strL("nam")),
	)
	require.Equal(t, diag.EnvVarNotFound, err.Kind)
	require.Contains(t, err.Error(), "did you mean 'name'?")
}
