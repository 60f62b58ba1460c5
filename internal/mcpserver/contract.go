package mcpserver

// PostFormatContract describes the canonical Markdown post format that
// LLM consumers should follow when creating or updating posts.
const PostFormatContract = `# Ansuz Post Format Contract

Every Markdown post stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
layout: default                     # REQUIRED – template the renderer applies
title: Human-readable title         # REQUIRED – used in search, listings, graph
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
---

Body text in standard Markdown.

Use [inline links](other-post) to reference other posts, and
![alt text](/assets/image.png) for images.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `layout` + "`" + ` field is required.** It selects the presentation template the
   external renderer applies; ` + "`" + `default` + "`" + ` unless told otherwise.
3. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
4. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `grpc-streaming` + "`" + `, ` + "`" + `tdd` + "`" + `).
5. **Cross-references** are plain Markdown links. Internal targets are
   relative paths or root-relative paths (` + "`" + `/essays/other-post` + "`" + `); the ` + "`" + `.md` + "`" + `
   extension may be omitted. Every internal target must exist in the corpus.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.
8. **Code samples** go in fenced blocks with a language tag; they are quoted
   teaching material, never links.

## Assets & Images

- Assets live in the shared ` + "`" + `assets/` + "`" + ` directory (flat, no sub-folders).
- Reference in posts using the absolute path: ` + "`" + `![description](/assets/filename.png)` + "`" + `
- Do **not** use relative paths like ` + "`" + `./assets/...` + "`" + ` — always use ` + "`" + `/assets/filename` + "`" + `.

## Example

` + "```" + `markdown
---
layout: default
title: The pitfalls of mocking in TDD
tags:
  - tdd
  - testing
---

# The pitfalls of mocking in TDD

Last week I wrote about [test doubles](test-doubles). This post digs into
where mocks go wrong.

![Test pyramid](/assets/test-pyramid.png)

Code samples go in fenced blocks below this paragraph.
` + "```" + `
`
