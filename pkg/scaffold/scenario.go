package scaffold

// Scenario is the starter scenario template `cleanroom init` stamps out: a
// single service, one step, and an empty expectations block with every
// section commented out as a reminder of what's available.
var Scenario = NewTemplate("scenario", `[meta]
name = "{{.Name}}"
description = "Generated by cleanroom init"

[services.app]
image = "{{.Image}}"
tag = "latest"

[services.app.env]
# KEY = "value"

[[steps]]
name = "smoke-test"
service = "app"
command = ["echo", "hello from cleanroom"]
expected_stdout_regex = "hello"

# [expect.counts]
# spans_total = { gte = 1 }
#
# [expect.status]
# all = "ok"
#
# [expect.hermeticity]
# no_external_services = true
`)

// README is the companion doc `cleanroom init` writes next to the
// scaffolded scenario, pointing a new user at the commands they'll need
// next.
var README = NewTemplate("readme", `# {{.Name}}

A Cleanroom scenario scaffolded by ` + "`cleanroom init`" + `.

Run it with:

    cleanroom run {{.FileName}}

Render it without running (useful while editing templates):

    cleanroom render {{.FileName}}

Validate structure without starting any containers:

    cleanroom validate {{.FileName}}
`)
