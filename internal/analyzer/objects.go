package analyzer

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ObjectKind is the kind of schema object a statement creates or drops.
type ObjectKind string

// Object kinds tracked for reversibility.
const (
	KindTable ObjectKind = "table"
	KindIndex ObjectKind = "index"
)

// Object is a named table or index.
type Object struct {
	Kind ObjectKind
	Name string
}

func (o Object) String() string {
	return string(o.Kind) + " " + o.Name
}

// ObjectRef is an object together with the index of the statement that
// creates or drops it.
type ObjectRef struct {
	Object
	StmtIndex int
}

// CreatedObjects returns the tables and indexes created by stmts, in order.
func CreatedObjects(stmts []*pg_query.RawStmt) []ObjectRef {
	var refs []ObjectRef

	for i, stmt := range stmts {
		switch node := stmt.Stmt.Node.(type) {
		case *pg_query.Node_CreateStmt:
			refs = append(refs, ObjectRef{Object{KindTable, TableName(node.CreateStmt.Relation)}, i})
		case *pg_query.Node_IndexStmt:
			if node.IndexStmt.Idxname != "" {
				refs = append(refs, ObjectRef{Object{KindIndex, node.IndexStmt.Idxname}, i})
			}
		}
	}

	return refs
}

// DroppedObjects returns the tables and indexes dropped by stmts, in order.
func DroppedObjects(stmts []*pg_query.RawStmt) []ObjectRef {
	var refs []ObjectRef

	for i, stmt := range stmts {
		node, ok := stmt.Stmt.Node.(*pg_query.Node_DropStmt)
		if !ok {
			continue
		}

		kind, ok := dropKind(node.DropStmt)
		if !ok {
			continue
		}

		for _, name := range DropStmtNames(node.DropStmt) {
			refs = append(refs, ObjectRef{Object{kind, name}, i})
		}
	}

	return refs
}

func dropKind(drop *pg_query.DropStmt) (ObjectKind, bool) {
	switch drop.GetRemoveType() {
	case pg_query.ObjectType_OBJECT_TABLE:
		return KindTable, true
	case pg_query.ObjectType_OBJECT_INDEX:
		return KindIndex, true
	default:
		return "", false
	}
}

// DropStmtNames returns the dot-joined names of the objects a DROP removes.
func DropStmtNames(drop *pg_query.DropStmt) []string {
	var names []string

	for _, obj := range drop.GetObjects() {
		listNode, ok := obj.Node.(*pg_query.Node_List)
		if !ok {
			continue
		}

		var parts []string

		for _, item := range listNode.List.Items {
			if s, ok := item.Node.(*pg_query.Node_String_); ok {
				parts = append(parts, s.String_.Sval)
			}
		}

		if len(parts) > 0 {
			names = append(names, strings.Join(parts, "."))
		}
	}

	return names
}

func objects(refs []ObjectRef) []Object {
	out := make([]Object, len(refs))
	for i, r := range refs {
		out[i] = r.Object
	}

	return out
}
