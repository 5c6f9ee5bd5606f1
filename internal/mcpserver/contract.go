package mcpserver

// TaskFormatContract describes the Markdown task-list format that LLM
// consumers should follow when writing notes Quire edits.
const TaskFormatContract = `# Quire Task Format Contract

Quire notes are plain Markdown files. Tasks are GitHub-style task-list items.

## Structure

` + "```" + `markdown
---
title: Groceries                    # OPTIONAL – otherwise the first heading or file name
---

# Groceries

- [ ] milk
- [x] bread
  - [ ] sourdough                   # nested tasks are indented
* [ ] eggs                          # "-", "*" and "1." are all list markers
1. [ ] call the bakery
` + "```" + `

## Rules

1. **A task line** is optional indentation, a list marker (` + "`" + `-` + "`" + `, ` + "`" + `*` + "`" + ` or a number like ` + "`" + `1.` + "`" + `),
   one space, a checkbox and the task text: ` + "`" + `- [ ] text` + "`" + `.
2. **Checkbox states:** ` + "`" + `[ ]` + "`" + ` is open; ` + "`" + `[x]` + "`" + ` or ` + "`" + `[X]` + "`" + ` is completed.
   Quire always writes a lowercase ` + "`" + `x` + "`" + `.
3. **Lines are 1-based** in every tool (` + "`" + `toggle_task` + "`" + `, ` + "`" + `list_tasks` + "`" + `),
   counted from the first line of the file including frontmatter.
4. **One task per line.** ` + "`" + `add_task` + "`" + ` rejects text containing line breaks.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Line endings** of an existing note are preserved (LF or CRLF).
7. Notes that are open in an editing session are changed through the session,
   so edits made by tools can be undone by the editor.

## Snapshots

- ` + "`" + `create_snapshot` + "`" + ` saves the current content of a note with an optional title.
- ` + "`" + `compare_snapshots` + "`" + ` lists lines added and removed between two snapshots.
- Closing an editing session after changes records an automatic snapshot.
`
