package types

import (
	"github.com/benbjohnson/immutable"
	"github.com/cottand/tyre/frontend/ast"
	"github.com/hashicorp/go-set/v3"
)

// AliasDefinition is a named type alias.
//
// Before resolution only the syntactic statement is known. Once Resolved, Target
// holds the analysed type: references to recursive aliases are kept as AliasRef
// and every other alias is inlined.
type AliasDefinition struct {
	ID       AliasID
	Name     string
	Fullname string
	Scope    ast.Scope
	Owner    string
	Params   []*TypeVarRef
	Target   Type
	// NoArgs is set for aliases of a bare generic class, like `A = List`:
	// arguments given to the alias are forwarded to the class
	NoArgs    bool
	Resolved  bool
	Recursive bool
	// Invalid aliases were rejected during resolution and Target is their fallback
	Invalid bool
	ast.Range

	stmt *ast.AliasStmt
	// waitingOn are the aliases the last resolution attempt could not proceed without
	waitingOn *set.Set[AliasID]
}

func (d *AliasDefinition) bindings(args []Type) map[TypeVarID]Type {
	bound := make(map[TypeVarID]Type, len(d.Params))
	for i, param := range d.Params {
		if i < len(args) {
			bound[param.ID] = args[i]
		} else {
			bound[param.ID] = Any
		}
	}
	return bound
}

// AliasRegistry stores the aliases of a module.
// It is mutable until TypeCtx.ResolveAll freezes it; after that only the frozen
// view is read.
type AliasRegistry struct {
	defs   []*AliasDefinition
	byName map[string]AliasID

	frozen      *immutable.Map[AliasID, AliasDefinition]
	frozenNames *immutable.Map[string, AliasID]
}

func newAliasRegistry() *AliasRegistry {
	return &AliasRegistry{byName: make(map[string]AliasID)}
}

func qualifiedName(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

// Register stores a pending definition for stmt and returns its id.
// A later statement with the same qualified name replaces the earlier one for lookups.
func (r *AliasRegistry) Register(stmt *ast.AliasStmt) AliasID {
	if r.frozen != nil {
		logger.Error("alias registered after resolution", "alias", stmt.Name.Name)
	}
	id := len(r.defs)
	scope := stmt.Scope
	if scope == 0 {
		scope = ast.ScopeModule
	}
	def := &AliasDefinition{
		ID:       id,
		Name:     stmt.Name.Name,
		Fullname: qualifiedName(stmt.Owner, stmt.Name.Name),
		Scope:    scope,
		Owner:    stmt.Owner,
		Range:    ast.RangeOf(stmt),
		stmt:     stmt,
	}
	r.defs = append(r.defs, def)
	r.byName[def.Fullname] = id
	return id
}

// lookup finds an alias by the name it is referred to as from inside owner
func (r *AliasRegistry) lookup(name, owner string) (AliasID, bool) {
	if owner != "" {
		if id, ok := r.byName[qualifiedName(owner, name)]; ok {
			return id, true
		}
	}
	id, ok := r.byName[name]
	return id, ok
}

// definition gives access to the live definition, during and after resolution
func (r *AliasRegistry) definition(id AliasID) (*AliasDefinition, bool) {
	if id < 0 || id >= len(r.defs) {
		return nil, false
	}
	return r.defs[id], true
}

func (r *AliasRegistry) freeze() {
	defs := immutable.NewMap[AliasID, AliasDefinition](immutable.NewHasher(0))
	names := immutable.NewMap[string, AliasID](immutable.NewHasher(""))
	for _, def := range r.defs {
		frozen := *def
		frozen.waitingOn = nil
		defs = defs.Set(def.ID, frozen)
	}
	for name, id := range r.byName {
		names = names.Set(name, id)
	}
	r.frozen = defs
	r.frozenNames = names
}

// Frozen reports whether the registry was resolved
func (r *AliasRegistry) Frozen() bool {
	return r.frozen != nil
}

// Lookup returns the id of the alias with the given qualified name, like `A` or `C.A`.
// It only sees aliases once they are resolved.
func (r *AliasRegistry) Lookup(fullname string) (AliasID, bool) {
	if r.frozenNames == nil {
		return 0, false
	}
	return r.frozenNames.Get(fullname)
}

// Definition returns the resolved definition of an alias
func (r *AliasRegistry) Definition(id AliasID) (AliasDefinition, bool) {
	if r.frozen == nil {
		return AliasDefinition{}, false
	}
	return r.frozen.Get(id)
}

// Len is the number of registered aliases
func (r *AliasRegistry) Len() int {
	return len(r.defs)
}
