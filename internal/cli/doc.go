// Package cli implements the imirun command-line interface.
//
// The package is organized around Cobra commands, with each command
// delegating to workflow helpers and the other internal packages for the
// actual work:
//
//   - Command definitions (cobra.Command instances, one file per area)
//   - Workflow orchestration (setupWorkflow: settings, registry, cloud client)
//   - Implementation details (cloud, registry, transfer, setup, run packages)
//
// # Command Structure
//
// The root command is "imirun" with a subcommand per action:
//
//	imirun create              - Launch and bootstrap an instance
//	imirun terminate|stop|restart|cancel_spot - Lifecycle control
//	imirun instance_setup      - Re-run the bootstrap
//	imirun run <config>        - Start an inversion and follow its log
//	imirun log                 - Re-attach to a run's log
//	imirun shell [command]     - Interactive SSH or one-off command
//	imirun copy_local <run>    - Pull results to local storage
//	imirun copy_from_s3 <run>  - Pull archived output onto the instance
//	imirun get_instance        - List instances, reconcile the record
//
// # Workflow System
//
// setupWorkflow handles the phases every action shares: find and validate
// settings.yml, open the instance registry next to it, and build the cloud
// client for the configured region. Index-scoped commands then resolve
// their -i flag to a registry record, and remote commands dial SSH through
// the record's public address.
//
// Registry updates follow provider calls, never precede them: a failed
// call leaves the record exactly as it was.
package cli
