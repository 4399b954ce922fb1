package msaccount

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &CreateMsg{}, migration.NoModification)
	migration.MustRegister(1, &CreateFromExistingMsg{}, migration.NoModification)
	migration.MustRegister(1, &ProposeMsg{}, migration.NoModification)
	migration.MustRegister(1, &VoteMsg{}, migration.NoModification)
	migration.MustRegister(1, &RejectMsg{}, migration.NoModification)
	migration.MustRegister(1, &ExecuteMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateOwnersMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateAnnotationsMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateConfigurationMsg{}, migration.NoModification)
}

var _ weave.Msg = (*CreateMsg)(nil)

func (CreateMsg) Path() string {
	return "msaccount/create"
}

func (m *CreateMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if len(m.Owners) > maxOwners {
		errs = errors.AppendField(errs, "Owners",
			errors.Wrap(errors.ErrMsg, "too many owners"))
	}
	errs = errors.AppendField(errs, "Owners", validateOwnerAddresses(m.Owners))
	// The creator is added to the owner set if not listed, so a threshold
	// one above the listed owner count can still be reached. The final
	// owner set is validated by the handler once the creator is known.
	if m.Threshold < 1 || int(m.Threshold) > len(m.Owners)+1 {
		errs = errors.AppendField(errs, "Threshold",
			errors.Wrap(errors.ErrMsg, "threshold cannot be reached"))
	}
	errs = errors.AppendField(errs, "Annotations", validateAnnotations(m.Annotations))
	return errs
}

var _ weave.Msg = (*CreateFromExistingMsg)(nil)

func (CreateFromExistingMsg) Path() string {
	return "msaccount/create_from_existing"
}

func (m *CreateFromExistingMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Address", m.Address.Validate())
	errs = errors.AppendField(errs, "Owners", validateOwners(errors.ErrMsg, m.Owners, m.Threshold))
	if m.Signature == nil {
		errs = errors.AppendField(errs, "Signature",
			errors.Wrap(errors.ErrMsg, "missing conversion signature"))
	}
	return errs
}

var _ weave.Msg = (*ProposeMsg)(nil)

func (ProposeMsg) Path() string {
	return "msaccount/propose"
}

func (m *ProposeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", m.Account.Validate())
	errs = errors.AppendField(errs, "Payload", validatePayloadShape(m.Payload, m.PayloadHash))
	return errs
}

var _ weave.Msg = (*VoteMsg)(nil)

func (VoteMsg) Path() string {
	return "msaccount/vote"
}

func (m *VoteMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", m.Account.Validate())
	if m.Sequence < 1 {
		errs = errors.AppendField(errs, "Sequence",
			errors.Wrap(errors.ErrMsg, "must be at least 1"))
	}
	return errs
}

var _ weave.Msg = (*RejectMsg)(nil)

func (RejectMsg) Path() string {
	return "msaccount/reject"
}

func (m *RejectMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", m.Account.Validate())
	if m.Sequence < 1 {
		errs = errors.AppendField(errs, "Sequence",
			errors.Wrap(errors.ErrMsg, "must be at least 1"))
	}
	return errs
}

var _ weave.Msg = (*ExecuteMsg)(nil)

func (ExecuteMsg) Path() string {
	return "msaccount/execute"
}

func (m *ExecuteMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", m.Account.Validate())
	if m.Sequence < 1 {
		errs = errors.AppendField(errs, "Sequence",
			errors.Wrap(errors.ErrMsg, "must be at least 1"))
	}
	return errs
}

var _ weave.Msg = (*UpdateOwnersMsg)(nil)

func (UpdateOwnersMsg) Path() string {
	return "msaccount/update_owners"
}

func (m *UpdateOwnersMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", m.Account.Validate())
	if len(m.Add) == 0 && len(m.Remove) == 0 && m.Threshold == 0 {
		errs = errors.AppendField(errs, "Add",
			errors.Wrap(errors.ErrEmpty, "nothing to update"))
	}
	for i, a := range m.Add {
		if err := a.Validate(); err != nil {
			errs = errors.AppendField(errs, "Add", errors.Wrapf(err, "address #%d", i))
		}
	}
	for i, r := range m.Remove {
		if err := r.Validate(); err != nil {
			errs = errors.AppendField(errs, "Remove", errors.Wrapf(err, "address #%d", i))
		}
		for _, a := range m.Add {
			if a.Equals(r) {
				errs = errors.AppendField(errs, "Remove",
					errors.Wrapf(errors.ErrMsg, "address %q both added and removed", r))
			}
		}
	}
	return errs
}

var _ weave.Msg = (*UpdateAnnotationsMsg)(nil)

func (UpdateAnnotationsMsg) Path() string {
	return "msaccount/update_annotations"
}

func (m *UpdateAnnotationsMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", m.Account.Validate())
	errs = errors.AppendField(errs, "Annotations", validateAnnotations(m.Annotations))
	return errs
}

var _ weave.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "msaccount/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Patch == nil {
		errs = errors.AppendField(errs, "Patch",
			errors.Wrap(errors.ErrMsg, "patch is required"))
	}
	return errs
}
