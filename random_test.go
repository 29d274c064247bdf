package heliumdb

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/lestrrat-go/heliumdb/node"
	"github.com/stretchr/testify/require"
)

var randPrefixes = []string{"", "a", "b"}

// docGen writes random documents whose prefixes are all bound.
type docGen struct {
	r *rand.Rand
}

func (g *docGen) uri() string {
	return fmt.Sprintf("urn:%d", g.r.IntN(4))
}

func (g *docGen) element(sb *strings.Builder, scope map[string]string, depth int) {
	outer := scope
	scope = make(map[string]string, len(outer)+1)
	maps.Copy(scope, outer)
	var decls []string
	declare := func(prefix, uri string) {
		scope[prefix] = uri
		if prefix == "" {
			decls = append(decls, fmt.Sprintf(` xmlns="%s"`, uri))
		} else {
			decls = append(decls, fmt.Sprintf(` xmlns:%s="%s"`, prefix, uri))
		}
	}
	for _, p := range randPrefixes {
		if g.r.IntN(4) != 0 {
			continue
		}
		if p == "" && g.r.IntN(3) == 0 {
			declare(p, "")
			continue
		}
		declare(p, g.uri())
	}

	prefix := randPrefixes[g.r.IntN(len(randPrefixes))]
	if prefix != "" && scope[prefix] == "" {
		declare(prefix, g.uri())
	}
	name := qname(prefix, fmt.Sprintf("e%d", depth))

	sb.WriteString("<" + name)
	for _, d := range decls {
		sb.WriteString(d)
	}
	sb.WriteString(` k="v"`)
	if scope["b"] != "" && g.r.IntN(2) == 0 {
		sb.WriteString(` b:k="v"`)
	}
	sb.WriteString(">")
	if depth < 3 {
		for range g.r.IntN(4) {
			if g.r.IntN(5) == 0 {
				sb.WriteString("t")
				continue
			}
			g.element(sb, scope, depth+1)
		}
	}
	sb.WriteString("</" + name + ">")
}

func (g *docGen) fragment(scope map[string]string) string {
	var sb strings.Builder
	g.element(&sb, scope, 1)
	return sb.String()
}

// naiveLookup resolves prefix by walking up the parent chain and reading
// the declarations made on each element.
func naiveLookup(t *testing.T, d *DB, pre int, prefix string) string {
	for p := pre; p >= 0; {
		n, err := d.Node(p)
		require.NoError(t, err)
		if n.Kind == node.ElementNode {
			decls, err := d.Namespaces(p)
			require.NoError(t, err)
			for i := len(decls) - 1; i >= 0; i-- {
				if decls[i].Prefix == prefix {
					return decls[i].URI
				}
			}
		}
		p = n.Parent
	}
	return ""
}

func scopeAt(t *testing.T, d *DB, pre int) map[string]string {
	scope := make(map[string]string)
	for _, p := range randPrefixes {
		scope[p] = naiveLookup(t, d, pre, p)
	}
	return scope
}

func verify(t *testing.T, d *DB) {
	t.Helper()
	consistent(t, d)
	for pre := 0; pre < d.Len(); pre++ {
		n, err := d.Node(pre)
		require.NoError(t, err)

		for _, p := range randPrefixes {
			want := naiveLookup(t, d, pre, p)
			got, err := d.LookupNamespace(pre, p)
			if p != "" && want == "" {
				require.ErrorIs(t, err, ErrUnboundPrefix)
				continue
			}
			require.NoError(t, err)
			require.Equal(t, want, got, `%q at %d`, p, pre)
		}

		switch {
		case n.Kind == node.ElementNode:
			require.Equal(t, naiveLookup(t, d, pre, prefixOf(n.Name)), n.NamespaceURI, `element %d`, pre)
		case n.Kind == node.AttributeNode && prefixOf(n.Name) != "":
			require.Equal(t, naiveLookup(t, d, pre, prefixOf(n.Name)), n.NamespaceURI, `attribute %d`, pre)
		default:
			require.Empty(t, n.NamespaceURI)
		}
	}
}

// elements returns the pre values of all elements, root elements
// included if roots is set.
func elements(d *DB, roots bool) []int {
	var list []int
	for pre := 0; pre < d.Len(); pre++ {
		n, _ := d.Node(pre)
		if n.Kind != node.ElementNode {
			continue
		}
		if p, _ := d.Node(n.Parent); !roots && p.Kind == node.DocumentNode {
			continue
		}
		list = append(list, pre)
	}
	return list
}

func TestRandomUpdates(t *testing.T) {
	ctx := context.Background()
	for seed := range uint64(20) {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			g := &docGen{r: rand.New(rand.NewPCG(seed, 42))}
			d := New()
			for i := range 3 {
				_, err := d.AddDocument(ctx, fmt.Sprintf("doc%d", i), strings.NewReader(g.fragment(nil)))
				require.NoError(t, err)
			}
			verify(t, d)

			for range 30 {
				switch op := g.r.IntN(5); op {
				case 0, 1:
					targets := elements(d, true)
					parent := targets[g.r.IntN(len(targets))]
					_, err := d.Insert(ctx, parent, strings.NewReader(g.fragment(scopeAt(t, d, parent))))
					require.NoError(t, err)
				case 2:
					targets := elements(d, false)
					if len(targets) == 0 {
						continue
					}
					target := targets[g.r.IntN(len(targets))]
					n, err := d.Node(target)
					require.NoError(t, err)
					_, err = d.InsertBefore(ctx, target, strings.NewReader(g.fragment(scopeAt(t, d, n.Parent))))
					require.NoError(t, err)
				case 3:
					targets := elements(d, false)
					if len(targets) == 0 {
						continue
					}
					require.NoError(t, d.Delete(ctx, targets[g.r.IntN(len(targets))]))
				case 4:
					targets := elements(d, true)
					pre := targets[g.r.IntN(len(targets))]
					err := d.DeclareNamespace(ctx, pre, randPrefixes[g.r.IntN(len(randPrefixes))], g.uri())
					if err != nil {
						require.ErrorIs(t, err, ErrInvalidOperation)
					}
				}
				verify(t, d)
			}

			var buf strings.Builder
			_, err := d.Flush(ctx, &buf)
			require.NoError(t, err)
			d2, err := Open(ctx, strings.NewReader(buf.String()))
			require.NoError(t, err)
			verify(t, d2)
		})
	}
}
