package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// child with children
const childParentPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
has_children: true
---
`

// grandchildren
const grandchildPage = `---
layout: default
title: %s
parent: %s
grand_parent: %s
nav_order: %d
---
`

// docType codes whether the command is a grandchild, child, etc
type docType int

const (
	root docType = iota
	child
	childParent
	grandchild
)

// page is the position of a command's doc page in the navigation
type page struct {
	docType     docType
	title       string
	navOrder    int
	parent      string
	grandParent string
}

// pages maps the base Markdown file name to its page
var pages = map[string]page{
	"primerool":                 {root, "primerool", 0, "", ""},
	"primerool_design":          {childParent, "design", 0, "primerool", ""},
	"primerool_design_wga":      {grandchild, "wga", 0, "design", "primerool"},
	"primerool_design_internal": {grandchild, "internal", 1, "design", "primerool"},
	"primerool_design_sequence": {grandchild, "sequence", 2, "design", "primerool"},
	"primerool_design_manual":   {grandchild, "manual", 3, "design", "primerool"},
	"primerool_design_target":   {grandchild, "target", 4, "design", "primerool"},
	"primerool_design_single":   {grandchild, "single", 5, "design", "primerool"},
	"primerool_gene":            {childParent, "gene", 1, "primerool", ""},
	"primerool_gene_sequence":   {grandchild, "sequence", 0, "gene", "primerool"},
	"primerool_blast":           {child, "blast", 2, "primerool", ""},
	"primerool_serve":           {child, "serve", 3, "primerool", ""},
	"primerool_docs":            {child, "docs", 4, "primerool", ""},
}

// docsCmd writes the Markdown documentation of every command
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown documentation for every command",
	Args:   cobra.MaximumNArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "./docs"
		if len(args) > 0 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		return doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler)
	},
}

func init() {
	RootCmd.AddCommand(docsCmd)
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	p, ok := pages[docName(filename)]
	if !ok {
		return ""
	}

	switch p.docType {
	case root:
		return fmt.Sprintf(rootPage, p.title, p.navOrder)
	case child:
		return fmt.Sprintf(childPage, p.title, p.parent, p.navOrder)
	case childParent:
		return fmt.Sprintf(childParentPage, p.title, p.parent, p.navOrder)
	case grandchild:
		return fmt.Sprintf(grandchildPage, p.title, p.parent, p.grandParent, p.navOrder)
	}
	return ""
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	if base := docName(filename); base != "primerool" {
		return base
	}
	return "/"
}

func docName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
