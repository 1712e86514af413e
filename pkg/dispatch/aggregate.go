package dispatch

import "fmt"

// aggregate reconciles task outcomes against the original request,
// restoring request order and synthesizing failures for devices that never
// ran. Exactly one record per original batch entry, by this precedence:
// missing host record, failed login, missing command outcome, failed
// command outcome, success.
func aggregate(variant Variant, batches []CommandBatch, hosts map[string]HostRecord,
	logins, outcomes map[string]TaskOutcome) []ResultRecord {

	records := make([]ResultRecord, 0, len(batches))
	for _, b := range batches {
		records = append(records, reconcile(variant, b, hosts, logins, outcomes))
	}
	return records
}

func reconcile(variant Variant, b CommandBatch, hosts map[string]HostRecord,
	logins, outcomes map[string]TaskOutcome) ResultRecord {

	name := b.DeviceName

	if _, ok := hosts[name]; !ok {
		return ResultRecord{
			DeviceName: name,
			Status:     StatusFailed,
			Error:      fmt.Sprintf("Device '%s' not found in topology", name),
		}
	}

	var loginStatus string
	if variant.Login {
		if lo, ok := logins[name]; ok {
			loginStatus = fmt.Sprintf("%v", lo.Result)
			if lo.Failed {
				return ResultRecord{
					DeviceName:  name,
					Status:      StatusFailed,
					Error:       loginStatus,
					LoginStatus: loginStatus,
				}
			}
		}
	}

	// Outcomes are double-keyed: a device present in the request but absent
	// from the outcome map never ran.
	out, ok := outcomes[name]
	if !ok {
		return ResultRecord{
			DeviceName:  name,
			Status:      StatusFailed,
			Error:       fmt.Sprintf("Device '%s' not found in task results", name),
			LoginStatus: loginStatus,
		}
	}

	if out.Failed {
		return ResultRecord{
			DeviceName:  name,
			Status:      StatusFailed,
			Output:      out.Result,
			Error:       fmt.Sprintf("%v", out.Result),
			LoginStatus: loginStatus,
		}
	}

	return ResultRecord{
		DeviceName:     name,
		Status:         StatusSuccess,
		Output:         out.Result,
		ConfigCommands: b.Commands,
		LoginStatus:    loginStatus,
	}
}
