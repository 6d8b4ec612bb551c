package v1handler

import (
	"bytes"
	"time"

	"scanorch/pkg/domain"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// decodeTask reads a task payload. Unknown protocols and severities are kept
// verbatim so the validator reports them.
func decodeTask(b []byte) (*domain.ScanTask, error) {
	var (
		task domain.ScanTask
		env  domain.CredentialEnvelope
	)

	d := jx.DecodeBytes(b)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			task.ID = domain.TaskID(s)
		case "targetUrls":
			urls, err := decodeStrings(d)
			if err != nil {
				return errors.Wrap(err, "targetUrls")
			}
			task.TargetURLs = urls
		case "credentials":
			if err := decodeCredential(d, &env); err != nil {
				return errors.Wrap(err, "credentials")
			}
		case "scanningDepth":
			n, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "scanningDepth")
			}
			task.ScanningDepth = n
		case "protocolTypes":
			names, err := decodeStrings(d)
			if err != nil {
				return errors.Wrap(err, "protocolTypes")
			}
			for _, name := range names {
				p, perr := domain.ParseProtocol(name)
				if perr != nil {
					p = domain.Protocol(name)
				}
				task.Protocols = append(task.Protocols, p)
			}
		case "schedulingMetadata":
			sm, err := decodeScheduling(d)
			if err != nil {
				return errors.Wrap(err, "schedulingMetadata")
			}
			task.Scheduling = sm
		default:
			return d.Skip()
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	cred, err := env.ToCredential()
	if err != nil {
		return nil, errors.Wrap(err, "credentials")
	}
	task.Credential = cred

	return &task, nil
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)

		return nil
	})

	return out, err
}

func decodeCredential(d *jx.Decoder, env *domain.CredentialEnvelope) error {
	if d.Next() == jx.Null {
		return d.Null()
	}

	return d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "type":
			dst = &env.Type
		case "token":
			dst = &env.Token
		case "username":
			dst = &env.Username
		case "password":
			dst = &env.Password
		default:
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return errors.Wrap(err, key)
		}
		*dst = s

		return nil
	})
}

func decodeScheduling(d *jx.Decoder) (*domain.SchedulingMetadata, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var sm domain.SchedulingMetadata
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "startTime":
			t, err := decodeTime(d)
			if err != nil {
				return errors.Wrap(err, "startTime")
			}
			sm.StartTime = t
		case "priority":
			n, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "priority")
			}
			sm.Priority = n
		case "labels":
			sm.Labels = map[string]string{}

			return d.Obj(func(d *jx.Decoder, key string) error {
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, key)
				}
				sm.Labels[key] = v

				return nil
			})
		default:
			return d.Skip()
		}

		return nil
	})

	return &sm, err
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse time")
	}

	return t, nil
}

// decodeResult reads an externally produced scan result.
func decodeResult(b []byte) (*domain.ScanResult, error) {
	var result domain.ScanResult

	d := jx.DecodeBytes(b)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "resultId":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "resultId")
			}
			result.ID = domain.ResultID(s)
		case "scanTaskId":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "scanTaskId")
			}
			result.ScanTaskID = domain.TaskID(s)
		case "timestamp":
			t, err := decodeTime(d)
			if err != nil {
				return errors.Wrap(err, "timestamp")
			}
			result.Timestamp = t.UTC()
		case "executionLogs":
			logs, err := decodeStrings(d)
			if err != nil {
				return errors.Wrap(err, "executionLogs")
			}
			result.ExecutionLogs = logs
		case "vulnerabilities":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := decodeVulnerability(d)
				if err != nil {
					return errors.Wrap(err, "vulnerabilities")
				}
				result.Vulnerabilities = append(result.Vulnerabilities, v)

				return nil
			})
		default:
			return d.Skip()
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func decodeVulnerability(d *jx.Decoder) (domain.Vulnerability, error) {
	var v domain.Vulnerability
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type", "severity", "description", "location":
		default:
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return errors.Wrap(err, key)
		}
		switch key {
		case "type":
			v.Type = s
		case "severity":
			sev, perr := domain.ParseSeverity(s)
			if perr != nil {
				sev = domain.Severity(s)
			}
			v.Severity = sev
		case "description":
			v.Description = s
		case "location":
			v.Location = s
		}

		return nil
	})

	return v, err
}

func encode(fn func(e *jx.Encoder)) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	fn(e)

	return bytes.Clone(e.Bytes())
}

func encodeTaskResponse(e *jx.Encoder, r domain.TaskResponse) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(string(r.Status)) })
		e.Field("scanTaskId", func(e *jx.Encoder) { e.Str(string(r.ScanTaskID)) })
		e.Field("message", func(e *jx.Encoder) { e.Str(r.Message) })
		if r.ResultID != "" {
			e.Field("resultId", func(e *jx.Encoder) { e.Str(string(r.ResultID)) })
		}
	})
}

func encodeResultResponse(e *jx.Encoder, r domain.ResultResponse) {
	e.Obj(func(e *jx.Encoder) {
		encodeResultResponseFields(e, r)
	})
}

func encodeResultResponseFields(e *jx.Encoder, r domain.ResultResponse) {
	e.Field("status", func(e *jx.Encoder) { e.Str(string(r.Status)) })
	if r.ResultID != "" {
		e.Field("resultId", func(e *jx.Encoder) { e.Str(string(r.ResultID)) })
	}
	e.Field("scanTaskId", func(e *jx.Encoder) { e.Str(string(r.ScanTaskID)) })
	e.Field("summary", func(e *jx.Encoder) { e.Str(r.Summary) })
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range ss {
			e.Str(s)
		}
	})
}

// encodeTask renders a stored task. Credential secrets never leave the
// service; only the credential type is reported.
func encodeTask(e *jx.Encoder, task *domain.ScanTask) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(string(task.ID)) })
		e.Field("targetUrls", func(e *jx.Encoder) { encodeStrings(e, task.TargetURLs) })
		if task.Credential != nil {
			e.Field("credentialType", func(e *jx.Encoder) { e.Str(string(task.Credential.Kind())) })
		}
		e.Field("scanningDepth", func(e *jx.Encoder) { e.Int(task.ScanningDepth) })
		e.Field("protocolTypes", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range task.Protocols {
					e.Str(string(p))
				}
			})
		})
		if sm := task.Scheduling; sm != nil {
			e.Field("schedulingMetadata", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("startTime", func(e *jx.Encoder) { encodeTime(e, sm.StartTime) })
					if sm.Priority != 0 {
						e.Field("priority", func(e *jx.Encoder) { e.Int(sm.Priority) })
					}
					if len(sm.Labels) > 0 {
						e.Field("labels", func(e *jx.Encoder) {
							e.Obj(func(e *jx.Encoder) {
								for k, v := range sm.Labels {
									e.Field(k, func(e *jx.Encoder) { e.Str(v) })
								}
							})
						})
					}
				})
			})
		}
		e.Field("status", func(e *jx.Encoder) { e.Str(string(task.Status)) })
		if task.StatusMessage != "" {
			e.Field("statusMessage", func(e *jx.Encoder) { e.Str(task.StatusMessage) })
		}
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, task.CreatedAt) })
		if !task.UpdatedAt.IsZero() {
			e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, task.UpdatedAt) })
		}
	})
}

// encodeResult renders a stored result together with its response summary.
func encodeResult(e *jx.Encoder, result *domain.ScanResult, resp domain.ResultResponse) {
	e.Obj(func(e *jx.Encoder) {
		encodeResultResponseFields(e, resp)
		e.Field("highestSeverity", func(e *jx.Encoder) { e.Str(string(result.HighestSeverity())) })
		e.Field("timestamp", func(e *jx.Encoder) { encodeTime(e, result.Timestamp) })
		e.Field("vulnerabilities", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range result.Vulnerabilities {
					e.Obj(func(e *jx.Encoder) {
						e.Field("type", func(e *jx.Encoder) { e.Str(v.Type) })
						e.Field("severity", func(e *jx.Encoder) { e.Str(string(v.Severity)) })
						if v.Description != "" {
							e.Field("description", func(e *jx.Encoder) { e.Str(v.Description) })
						}
						if v.Location != "" {
							e.Field("location", func(e *jx.Encoder) { e.Str(v.Location) })
						}
					})
				}
			})
		})
		e.Field("executionLogs", func(e *jx.Encoder) { encodeStrings(e, result.ExecutionLogs) })
	})
}

func encodeError(e *jx.Encoder, r ErrorResponse) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(r.Code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(r.Message) })
	})
}
